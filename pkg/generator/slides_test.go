package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImageGenerator はプロンプトごとに結果を返すテスト用の ImageGenerator です。
type fakeImageGenerator struct {
	mu       sync.Mutex
	prompts  []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	failOn   string // プロンプトにこの文字列が含まれると失敗する
	empty    string // プロンプトにこの文字列が含まれると空の結果を返す
	block    bool   // ctx が終了するまで返らない
}

func (f *fakeImageGenerator) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	time.Sleep(f.delay)
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return nil, errors.New("quota exhausted")
	}
	if f.empty != "" && strings.Contains(prompt, f.empty) {
		return &ImageResult{}, nil
	}
	return &ImageResult{URL: "https://img.example/" + prompt[len(prompt)-12:], MimeType: "image/png"}, nil
}

func newGenerator(t *testing.T, fake *fakeImageGenerator, opts ...Option) *SlideImageGenerator {
	t.Helper()
	g, err := NewSlideImageGenerator(fake, prompts.NewImagePromptBuilder(""), opts...)
	require.NoError(t, err)
	return g
}

var salesReq = domain.GenerationRequest{Topic: "Quarterly Sales Report", Style: domain.StyleBusiness}

func TestSlideImageGenerator_Execute(t *testing.T) {
	fake := &fakeImageGenerator{delay: 20 * time.Millisecond}
	g := newGenerator(t, fake)

	images, err := g.Execute(context.Background(), salesReq)
	require.NoError(t, err)
	require.Len(t, images, domain.SlideCount)
	for _, role := range domain.Roles() {
		assert.NotEmpty(t, images[role], role.PromptName())
	}
	assert.Len(t, fake.prompts, domain.SlideCount)
	assert.Equal(t, int32(domain.SlideCount), fake.peak.Load(), "6件が同時に発行されること")
}

func TestSlideImageGenerator_FailsWhole(t *testing.T) {
	t.Run("1件のエラーで全体が失敗すること", func(t *testing.T) {
		fake := &fakeImageGenerator{failOn: "content 2 slide"}
		images, err := newGenerator(t, fake).Execute(context.Background(), salesReq)
		require.Error(t, err)
		assert.Nil(t, images)

		var serr *SlideError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, domain.RoleContent2, serr.Role)
		assert.Contains(t, err.Error(), "failed to generate image for the content 2 slide")
		assert.Len(t, fake.prompts, domain.SlideCount, "失敗しても全件の完了を待つこと")
	})

	t.Run("画像が空なら ErrNoImage になること", func(t *testing.T) {
		fake := &fakeImageGenerator{empty: "conclusion slide"}
		_, err := newGenerator(t, fake).Execute(context.Background(), salesReq)
		assert.ErrorIs(t, err, ErrNoImage)
	})
}

func TestSlideImageGenerator_Concurrency(t *testing.T) {
	fake := &fakeImageGenerator{delay: 10 * time.Millisecond}
	_, err := newGenerator(t, fake, WithConcurrency(2)).Execute(context.Background(), salesReq)
	require.NoError(t, err)
	assert.LessOrEqual(t, fake.peak.Load(), int32(2))
}

func TestSlideImageGenerator_RequestTimeout(t *testing.T) {
	fake := &fakeImageGenerator{block: true}
	_, err := newGenerator(t, fake, WithRequestTimeout(20*time.Millisecond)).Execute(context.Background(), salesReq)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSlideImageGenerator_RequiresDependencies(t *testing.T) {
	_, err := NewSlideImageGenerator(nil, prompts.NewImagePromptBuilder(""))
	assert.Error(t, err)
	_, err = NewSlideImageGenerator(&fakeImageGenerator{}, nil)
	assert.Error(t, err)
}

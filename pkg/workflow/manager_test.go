package workflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shouni/go-slide-kit/pkg/deck"
	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/generator"
	"github.com/shouni/go-slide-kit/pkg/preview"
	"github.com/shouni/go-slide-kit/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls atomic.Int32
	err   error

	// hold が設定されていれば、トピックが holdTopic の呼び出しは hold が閉じるまで待ちます。
	hold      chan struct{}
	holdTopic string
	entered   chan struct{}
}

func (f *fakeGenerator) Execute(_ context.Context, req domain.GenerationRequest) (generator.SlideImages, error) {
	f.calls.Add(1)
	if f.hold != nil && req.Topic == f.holdTopic {
		close(f.entered)
		<-f.hold
	}
	if f.err != nil {
		return nil, f.err
	}
	images := generator.SlideImages{}
	for _, role := range domain.Roles() {
		images[role] = "https://img.example/" + role.SlideID()
	}
	return images, nil
}

type fakeCompressor struct{}

func (fakeCompressor) Compress(_ context.Context, url string) (string, error) {
	return "thumb:" + url, nil
}

type fakeExporter struct {
	err error
}

func (f *fakeExporter) Export(_ context.Context, p *domain.Presentation, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "%PDF-"+p.ID)
	return err
}

type recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, n := range r.items {
		out[i] = n.Title
	}
	return out
}

type fixture struct {
	m     *Manager
	gen   *fakeGenerator
	exp   *fakeExporter
	notes *recorder
	store storage.Store
}

func newFixture(t *testing.T, store storage.Store) *fixture {
	t.Helper()
	gw, err := preview.NewGateway(store, fakeCompressor{})
	require.NoError(t, err)

	f := &fixture{gen: &fakeGenerator{}, exp: &fakeExporter{}, notes: &recorder{}, store: store}
	f.m, err = New(ManagerArgs{
		Generator: f.gen,
		Assembler: deck.NewAssembler(),
		Previews:  gw,
		Exporter:  f.exp,
		Notifier:  f.notes,
	})
	require.NoError(t, err)
	return f
}

func TestManager_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("検証に失敗したらモデルを呼ばないこと", func(t *testing.T) {
		f := newFixture(t, storage.NewMemoryStore())
		_, err := f.m.Generate(ctx, "Hi", "business")

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "topic", verr.Fields[0].Field)
		assert.Zero(t, f.gen.calls.Load())
		assert.Empty(t, f.notes.titles())
	})

	t.Run("成功すると現在のプレゼンテーションになること", func(t *testing.T) {
		f := newFixture(t, storage.NewMemoryStore())
		p, err := f.m.Generate(ctx, "  Quarterly Sales Report ", "Business")
		require.NoError(t, err)
		assert.Equal(t, "Quarterly Sales Report", p.Topic)
		assert.Equal(t, domain.StyleBusiness, p.Style)

		cur, err := f.m.Current()
		require.NoError(t, err)
		assert.Equal(t, p.ID, cur.ID)
		assert.Equal(t, []string{"Success!"}, f.notes.titles())
	})

	t.Run("失敗すると以前のものも破棄されること", func(t *testing.T) {
		f := newFixture(t, storage.NewMemoryStore())
		_, err := f.m.Generate(ctx, "First deck", "creative")
		require.NoError(t, err)

		f.gen.err = errors.New("failed to generate image for the title slide: boom")
		_, err = f.m.Generate(ctx, "Second deck", "creative")
		require.Error(t, err)

		_, err = f.m.Current()
		assert.ErrorIs(t, err, domain.ErrNoPresentation)
		assert.Equal(t, Notification{Level: LevelError, Title: "Generation Failed", Description: msgGenerateFailed}, f.notes.items[1])
	})
}

func TestManager_GenerateSuperseded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())
	f.gen.hold = make(chan struct{})
	f.gen.holdTopic = "Slow deck"
	f.gen.entered = make(chan struct{})

	type result struct {
		p   *domain.Presentation
		err error
	}
	slow := make(chan result, 1)
	go func() {
		p, err := f.m.Generate(ctx, "Slow deck", "business")
		slow <- result{p, err}
	}()
	<-f.gen.entered

	fast, err := f.m.Generate(ctx, "Fast deck", "business")
	require.NoError(t, err)

	close(f.gen.hold)
	res := <-slow
	assert.ErrorIs(t, res.err, ErrSuperseded)
	assert.Nil(t, res.p)

	cur, err := f.m.Current()
	require.NoError(t, err)
	assert.Equal(t, fast.ID, cur.ID)
	assert.Equal(t, "Fast deck", cur.Topic)
	assert.Equal(t, []string{"Success!"}, f.notes.titles())
}

func TestManager_RenameAndSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())

	_, err := f.m.Save(ctx)
	assert.ErrorIs(t, err, domain.ErrNoPresentation)

	p, err := f.m.Generate(ctx, "Photosynthesis", "educational")
	require.NoError(t, err)

	renamed, err := f.m.RenameSlide("slide_2", "Why plants are green")
	require.NoError(t, err)
	assert.Equal(t, "Why plants are green", renamed.Slides[1].Title)
	_, err = f.m.RenameSlide("slide_9", "x")
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)

	list, err := f.m.Save(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
	assert.Equal(t, "Why plants are green", list[0].Slides[1].Title)

	list, err = f.m.Save(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Contains(t, f.notes.titles(), "Presentation Saved")
}

func TestManager_SaveQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemoryStore()
	f := newFixture(t, storage.WithQuota(inner, 32))

	_, err := f.m.Generate(ctx, "Big deck", "business")
	require.NoError(t, err)

	list, err := f.m.Save(ctx)
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.Len(t, list, 1)
	assert.Len(t, f.m.Saved(), 1)
	last := f.notes.items[len(f.notes.items)-1]
	assert.Equal(t, "Could not save presentation", last.Title)
	assert.Equal(t, LevelError, last.Level)

	restarted := newFixture(t, inner)
	loaded, err := restarted.m.LoadSaved(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestManager_DeleteSaved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())
	p, err := f.m.Generate(ctx, "Delete me", "creative")
	require.NoError(t, err)
	_, err = f.m.Save(ctx)
	require.NoError(t, err)

	list, err := f.m.DeleteSaved(ctx, "pres_unknown")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = f.m.Current()
	assert.NoError(t, err)

	list, err = f.m.DeleteSaved(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.m.Current()
	assert.ErrorIs(t, err, domain.ErrNoPresentation, "一致する現在のプレゼンテーションも破棄されること")
}

func TestManager_Export(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())

	_, err := f.m.Export(ctx, io.Discard)
	assert.ErrorIs(t, err, domain.ErrNoPresentation)

	p, err := f.m.Generate(ctx, "Quarterly Sales Report", "business")
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := f.m.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly_Sales_Report_presentation.pdf", name)
	assert.Equal(t, "%PDF-"+p.ID, buf.String())

	f.exp.err = errors.New("fetch failed")
	_, err = f.m.Export(ctx, &buf)
	assert.Error(t, err)
	titles := f.notes.titles()
	assert.Equal(t, []string{"Preparing PDF...", "PDF Export Error"}, titles[len(titles)-2:])
}

func TestManager_LoadSavedMalformed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, preview.StoreKey, "not json"))
	f := newFixture(t, store)

	list, err := f.m.LoadSaved(ctx)
	assert.ErrorIs(t, err, preview.ErrMalformedStore)
	assert.Empty(t, list)
	assert.Equal(t, []string{"Error"}, f.notes.titles())
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(ManagerArgs{})
	assert.Error(t, err)
}

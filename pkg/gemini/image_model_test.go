package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-slide-kit/pkg/generator"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vincent-petithory/dataurl"
)

type fakePanels struct {
	resp *imagedom.ImageResponse
	err  error
	req  imagedom.ImageGenerationRequest
}

func (f *fakePanels) GenerateMangaPanel(_ context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestImageModel_GenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}

	t.Run("画像データは data URL になること", func(t *testing.T) {
		fake := &fakePanels{resp: &imagedom.ImageResponse{Data: png, MimeType: "image/png"}}
		m, err := NewImageModel(fake)
		require.NoError(t, err)

		res, err := m.GenerateImage(context.Background(), "a chart")
		require.NoError(t, err)
		assert.Equal(t, "image/png", res.MimeType)

		decoded, err := dataurl.DecodeString(res.URL)
		require.NoError(t, err)
		assert.Equal(t, png, decoded.Data)

		assert.Equal(t, "a chart", fake.req.Prompt)
		assert.Equal(t, SlideAspectRatio, fake.req.AspectRatio)
	})

	t.Run("MIMEタイプが空なら image/png とみなすこと", func(t *testing.T) {
		fake := &fakePanels{resp: &imagedom.ImageResponse{Data: png}}
		m, err := NewImageModel(fake)
		require.NoError(t, err)

		res, err := m.GenerateImage(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, "image/png", res.MimeType)
		assert.Contains(t, res.URL, "data:image/png")
	})

	t.Run("画像がなければ ErrNoImage", func(t *testing.T) {
		for _, resp := range []*imagedom.ImageResponse{nil, {MimeType: "image/png"}} {
			m, err := NewImageModel(&fakePanels{resp: resp})
			require.NoError(t, err)
			_, err = m.GenerateImage(context.Background(), "p")
			assert.ErrorIs(t, err, generator.ErrNoImage)
		}
	})

	t.Run("APIエラーはラップされること", func(t *testing.T) {
		apiErr := errors.New("429 resource exhausted")
		m, err := NewImageModel(&fakePanels{err: apiErr})
		require.NoError(t, err)
		_, err = m.GenerateImage(context.Background(), "p")
		assert.ErrorIs(t, err, apiErr)
	})
}

func TestNewImageModel_RequiresPanels(t *testing.T) {
	_, err := NewImageModel(nil)
	assert.Error(t, err)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.Error(t, err)
}

// Package gemini は gemini-image-kit の画像生成器を generator.ImageGenerator として提供します。
package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shouni/go-slide-kit/pkg/generator"

	"github.com/patrickmn/go-cache"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
	geminiclient "github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/vincent-petithory/dataurl"
	"google.golang.org/genai"
)

const (
	// DefaultImageModel は画像生成に使用する既定のモデル名です。
	DefaultImageModel = "gemini-2.5-flash-image"

	// SlideAspectRatio はスライド画像の縦横比です。
	SlideAspectRatio = "16:9"

	defaultTemperature     = float32(0.4)
	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 15 * time.Minute
	defaultTTL             = 5 * time.Minute
	defaultMimeType        = "image/png"
)

// PanelGenerator は imagekit.ImageGenerator のうち本パッケージが利用するメソッドです。
type PanelGenerator interface {
	GenerateMangaPanel(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error)
}

// AssetReader は参照画像をパスから読み出します。
type AssetReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ImageModel は1枚のスライド画像を 16:9 で生成します。
type ImageModel struct {
	panels PanelGenerator
}

// NewClient は APIキーから Gemini クライアントを初期化します。
func NewClient(ctx context.Context, apiKey string) (geminiclient.GenerativeModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	client, err := geminiclient.NewClient(ctx, geminiclient.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// NewPanelGenerator は画像キャッシュ付きの GeminiImageCore から画像生成器を構築します。
// model が空の場合は既定のモデルを使います。
func NewPanelGenerator(aiClient geminiclient.GenerativeModel, reader AssetReader, httpClient httpkit.ClientInterface, model string) (imagekit.ImageGenerator, error) {
	if model == "" {
		model = DefaultImageModel
	}
	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imagekit.NewGeminiImageCore(
		aiClient,
		reader,
		httpClient,
		imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}
	gen, err := imagekit.NewGeminiGenerator(model, core)
	if err != nil {
		return nil, fmt.Errorf("GeminiGenerator の初期化に失敗しました: %w", err)
	}
	return gen, nil
}

// NewImageModel は ImageModel を初期化します。
func NewImageModel(panels PanelGenerator) (*ImageModel, error) {
	if panels == nil {
		return nil, fmt.Errorf("PanelGenerator は必須です")
	}
	return &ImageModel{panels: panels}, nil
}

// GenerateImage はプロンプトから画像を生成し、data URL として返します。
func (m *ImageModel) GenerateImage(ctx context.Context, prompt string) (*generator.ImageResult, error) {
	resp, err := m.panels.GenerateMangaPanel(ctx, imagedom.ImageGenerationRequest{
		Prompt:      prompt,
		AspectRatio: SlideAspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("画像生成APIの呼び出しに失敗しました: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		slog.WarnContext(ctx, "Image response contained no data")
		return nil, generator.ErrNoImage
	}

	mime := resp.MimeType
	if mime == "" {
		mime = defaultMimeType
	}
	return &generator.ImageResult{
		URL:      dataurl.New(resp.Data, mime).String(),
		MimeType: mime,
	}, nil
}

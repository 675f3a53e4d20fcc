package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/task"

	"golang.org/x/time/rate"
)

// ErrNoImage は画像生成モデルが画像を返さなかった場合のエラーです。
var ErrNoImage = errors.New("model returned no image")

// ImageResult は外部モデルが返した画像への参照です。
type ImageResult struct {
	URL      string // http(s) URL または data URL
	MimeType string
}

// ImageGenerator はプロンプトから1枚の画像を生成する外部モデルを抽象化します。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)
}

// PromptBuilder はスライドの役割ごとのプロンプトを構築します。
type PromptBuilder interface {
	BuildSlidePrompt(req domain.GenerationRequest, role domain.Role) string
}

// SlideError はどのスライドの生成に失敗したかを保持します。
type SlideError struct {
	Role domain.Role
	Err  error
}

func (e *SlideError) Error() string {
	return fmt.Sprintf("failed to generate image for the %s slide: %v", e.Role.PromptName(), e.Err)
}

func (e *SlideError) Unwrap() error {
	return e.Err
}

// SlideImages は役割をキーにした生成済み画像URLです。
type SlideImages map[domain.Role]string

// SlideImageGenerator は6枚のスライド画像を並列に生成します。
type SlideImageGenerator struct {
	imageGen    ImageGenerator
	prompts     PromptBuilder
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
}

// Option は SlideImageGenerator の挙動を調整します。
type Option func(*SlideImageGenerator)

// WithRateLimiter は各リクエスト前に待機するリミッターを設定します。nil なら制限しません。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(g *SlideImageGenerator) { g.limiter = l }
}

// WithConcurrency は同時に発行するリクエスト数の上限を設定します。0 は無制限です。
func WithConcurrency(n int) Option {
	return func(g *SlideImageGenerator) { g.concurrency = n }
}

// WithRequestTimeout は1枚あたりの生成リクエストのタイムアウトを設定します。0 は無制限です。
func WithRequestTimeout(d time.Duration) Option {
	return func(g *SlideImageGenerator) { g.timeout = d }
}

// NewSlideImageGenerator は SlideImageGenerator の新しいインスタンスを初期化します。
func NewSlideImageGenerator(imageGen ImageGenerator, pb PromptBuilder, opts ...Option) (*SlideImageGenerator, error) {
	if imageGen == nil {
		return nil, fmt.Errorf("imageGen は必須です")
	}
	if pb == nil {
		return nil, fmt.Errorf("prompt builder は必須です")
	}
	g := &SlideImageGenerator{imageGen: imageGen, prompts: pb}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Execute は6つの役割それぞれについて画像生成を並列に実行し、全件の完了を待ちます。
// 1枚でも失敗した場合は部分的な結果を返さず、失敗した役割を含むエラーを返します。
func (g *SlideImageGenerator) Execute(ctx context.Context, req domain.GenerationRequest) (SlideImages, error) {
	roles := domain.Roles()
	urls := make([]string, len(roles))

	start := time.Now()
	err := task.JoinAll(ctx, len(roles), g.concurrency, func(ctx context.Context, i int) error {
		role := roles[i]
		url, err := g.generateOne(ctx, req, role)
		if err != nil {
			return &SlideError{Role: role, Err: err}
		}
		urls[i] = url
		return nil
	})
	if err != nil {
		slog.Error("Slide image generation failed", "topic", req.Topic, "error", err)
		return nil, err
	}

	images := make(SlideImages, len(roles))
	for i, role := range roles {
		images[role] = urls[i]
	}
	slog.Info("All slide images generated",
		"topic", req.Topic,
		"count", len(images),
		"duration", time.Since(start).Round(time.Millisecond))
	return images, nil
}

func (g *SlideImageGenerator) generateOne(ctx context.Context, req domain.GenerationRequest, role domain.Role) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	logger := slog.With("slide", role.PromptName(), "style", req.Style)
	logger.Info("Starting slide image generation")

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	startTime := time.Now()
	res, err := g.imageGen.GenerateImage(ctx, g.prompts.BuildSlidePrompt(req, role))
	if err != nil {
		return "", err
	}
	if res == nil || res.URL == "" {
		return "", ErrNoImage
	}

	logger.Info("Slide image generation completed", "duration", time.Since(startTime).Round(time.Millisecond))
	return res.URL, nil
}

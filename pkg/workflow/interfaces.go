package workflow

import (
	"context"
	"io"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/generator"
)

// SlideGenerator は6枚分のスライド画像を生成します。
type SlideGenerator interface {
	Execute(ctx context.Context, req domain.GenerationRequest) (generator.SlideImages, error)
}

// DeckAssembler は生成済み画像から Presentation を組み立てます。
type DeckAssembler interface {
	Assemble(req domain.GenerationRequest, images generator.SlideImages) (*domain.Presentation, error)
}

// PreviewStore は保存済みプレビュー一覧を管理します。
type PreviewStore interface {
	Load(ctx context.Context) ([]domain.PresentationPreview, error)
	Save(ctx context.Context, p *domain.Presentation) ([]domain.PresentationPreview, error)
	Delete(ctx context.Context, id string) ([]domain.PresentationPreview, error)
	List() []domain.PresentationPreview
}

// Exporter は Presentation をファイル形式に書き出します。
type Exporter interface {
	Export(ctx context.Context, p *domain.Presentation, w io.Writer) error
}

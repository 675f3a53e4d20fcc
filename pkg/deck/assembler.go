// Package deck は生成済み画像から Presentation を組み立てます。
package deck

import (
	"fmt"
	"time"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/generator"

	"github.com/google/uuid"
)

const idPrefix = "pres_"

// Assembler は役割ごとの画像を正規の順序のスライドに並べます。
type Assembler struct {
	now   func() time.Time
	newID func() string
}

// Option は Assembler の時刻源や ID 生成を差し替えます。
type Option func(*Assembler)

// WithClock は作成日時に使う時刻源を設定します。
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithIDFunc はプレゼンテーションIDの生成関数を設定します。
func WithIDFunc(newID func() string) Option {
	return func(a *Assembler) { a.newID = newID }
}

// NewAssembler は Assembler を初期化します。
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		now:   time.Now,
		newID: func() string { return idPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble は6枚のスライドを持つ新しい Presentation を返します。
func (a *Assembler) Assemble(req domain.GenerationRequest, images generator.SlideImages) (*domain.Presentation, error) {
	roles := domain.Roles()
	slides := make([]domain.Slide, 0, len(roles))
	for _, role := range roles {
		url, ok := images[role]
		if !ok || url == "" {
			return nil, fmt.Errorf("%s スライドの画像がありません", role.PromptName())
		}
		slides = append(slides, domain.Slide{
			ID:       role.SlideID(),
			Title:    role.DefaultTitle(),
			ImageURL: url,
		})
	}

	return &domain.Presentation{
		ID:        a.newID(),
		Topic:     req.Topic,
		Style:     req.Style,
		CreatedAt: a.now(),
		Slides:    slides,
	}, nil
}

package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/storage"
	"github.com/shouni/go-slide-kit/pkg/task"
)

// StoreKey は保存済みプレビュー一覧を保持するキーです。
const StoreKey = "slidegenius-presentations"

var (
	// ErrNotDurable はメモリ上の一覧は更新されたがストアへの書き込みに失敗した場合のエラーです。
	ErrNotDurable = errors.New("preview list updated in memory but not persisted")
	// ErrMalformedStore はストアの内容を解釈できなかった場合のエラーです。
	ErrMalformedStore = errors.New("stored preview list is malformed")
)

// Compressor は画像URLをサムネイルURLに変換します。
type Compressor interface {
	Compress(ctx context.Context, imageURL string) (string, error)
}

// Gateway はメモリ上のプレビュー一覧とその永続化を管理します。
// Save と Delete はストアの現在の内容を読み直す read-modify-write として直列に実行されます。
type Gateway struct {
	store      storage.Store
	compressor Compressor

	mu       sync.Mutex
	previews []domain.PresentationPreview
}

// NewGateway は Gateway を初期化します。一覧は Load を呼ぶまで空です。
func NewGateway(store storage.Store, compressor Compressor) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("store は必須です")
	}
	if compressor == nil {
		return nil, fmt.Errorf("compressor は必須です")
	}
	return &Gateway{store: store, compressor: compressor}, nil
}

// Load はストアから一覧を読み込みます。値が無い場合は空の一覧を返します。
// 内容が壊れている場合は空の一覧と ErrMalformedStore を返します。
// 読み込みに失敗した場合、メモリ上の一覧は変更しません。
func (g *Gateway) Load(ctx context.Context) ([]domain.PresentationPreview, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	list, err := g.readStore(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedStore) {
			g.previews = nil
			return []domain.PresentationPreview{}, err
		}
		return nil, err
	}

	g.previews = list
	slog.Info("Saved presentations loaded", "count", len(list))
	return g.snapshot(), nil
}

// List はメモリ上の一覧のコピーを返します。
func (g *Gateway) List() []domain.PresentationPreview {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Save はスライド画像を縮小したプレビューを一覧に upsert し、永続化します。
// upsert はストアの現在の内容に対して適用し、他のプロセスによる保存を失いません。
// 読み込みか書き込みに失敗した場合もメモリ上の一覧は更新され、ErrNotDurable を返します。
// 読み込みに失敗した場合はストアに書き込みません。
func (g *Gateway) Save(ctx context.Context, p *domain.Presentation) ([]domain.PresentationPreview, error) {
	if p == nil {
		return nil, domain.ErrNoPresentation
	}

	start := time.Now()
	preview, err := g.buildPreview(ctx, p)
	if err != nil {
		return g.List(), err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	base, err := g.readBase(ctx)
	if err != nil {
		g.previews = upsert(g.previews, preview)
		return g.snapshot(), fmt.Errorf("%w: %w", ErrNotDurable, err)
	}

	next := upsert(base, preview)
	g.previews = next
	if err := g.persist(ctx, next); err != nil {
		return g.snapshot(), err
	}

	slog.Info("Presentation saved",
		"id", p.ID,
		"count", len(next),
		"duration", time.Since(start).Round(time.Millisecond))
	return g.snapshot(), nil
}

// Delete は一覧から id を取り除き永続化します。ストアに存在しない id の場合は書き込みません。
func (g *Gateway) Delete(ctx context.Context, id string) ([]domain.PresentationPreview, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base, err := g.readBase(ctx)
	if err != nil {
		g.previews = without(g.previews, id)
		return g.snapshot(), fmt.Errorf("%w: %w", ErrNotDurable, err)
	}

	kept := without(base, id)
	g.previews = kept
	if len(kept) == len(base) {
		slog.Debug("Delete skipped, id not found", "id", id)
		return g.snapshot(), nil
	}

	if err := g.persist(ctx, kept); err != nil {
		return g.snapshot(), err
	}
	slog.Info("Saved presentation deleted", "id", id, "count", len(kept))
	return g.snapshot(), nil
}

// readStore はストアの現在の一覧を読み込みます。呼び出し側でロックを保持している必要があります。
func (g *Gateway) readStore(ctx context.Context) ([]domain.PresentationPreview, error) {
	raw, ok, err := g.store.Get(ctx, StoreKey)
	if err != nil {
		return nil, fmt.Errorf("保存済み一覧の読み込みに失敗しました: %w", err)
	}
	if !ok || raw == "" {
		return []domain.PresentationPreview{}, nil
	}

	var list []domain.PresentationPreview
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		slog.Warn("Stored preview list is malformed, starting empty", "key", StoreKey, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformedStore, err)
	}
	return list, nil
}

// readBase は書き込みの基準となる一覧を返します。壊れた値は空の一覧として上書きします。
func (g *Gateway) readBase(ctx context.Context) ([]domain.PresentationPreview, error) {
	list, err := g.readStore(ctx)
	if errors.Is(err, ErrMalformedStore) {
		return []domain.PresentationPreview{}, nil
	}
	return list, err
}

func (g *Gateway) buildPreview(ctx context.Context, p *domain.Presentation) (domain.PresentationPreview, error) {
	thumbs := make([]string, len(p.Slides))
	err := task.JoinAll(ctx, len(p.Slides), 0, func(ctx context.Context, i int) error {
		url, err := g.compressor.Compress(ctx, p.Slides[i].ImageURL)
		if err != nil {
			return fmt.Errorf("slide %s: %w", p.Slides[i].ID, err)
		}
		thumbs[i] = url
		return nil
	})
	if err != nil {
		return domain.PresentationPreview{}, fmt.Errorf("サムネイルの作成に失敗しました: %w", err)
	}

	slides := make([]domain.SlidePreview, len(p.Slides))
	for i, s := range p.Slides {
		slides[i] = domain.SlidePreview{ID: s.ID, Title: s.Title, ThumbnailURL: thumbs[i]}
	}
	return domain.PresentationPreview{
		ID:        p.ID,
		Topic:     p.Topic,
		Style:     p.Style,
		CreatedAt: p.CreatedAt,
		Slides:    slides,
	}, nil
}

// persist は一覧全体をシリアライズして書き込みます。呼び出し側でロックを保持している必要があります。
func (g *Gateway) persist(ctx context.Context, list []domain.PresentationPreview) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotDurable, err)
	}
	if err := g.store.Set(ctx, StoreKey, string(data)); err != nil {
		slog.Warn("Preview list could not be persisted", "bytes", len(data), "error", err)
		return fmt.Errorf("%w: %w", ErrNotDurable, err)
	}
	return nil
}

func (g *Gateway) snapshot() []domain.PresentationPreview {
	out := make([]domain.PresentationPreview, len(g.previews))
	copy(out, g.previews)
	return out
}

// upsert は同じ id があれば置き換え、無ければ先頭に追加します。
func upsert(list []domain.PresentationPreview, pv domain.PresentationPreview) []domain.PresentationPreview {
	for i := range list {
		if list[i].ID == pv.ID {
			out := make([]domain.PresentationPreview, len(list))
			copy(out, list)
			out[i] = pv
			return out
		}
	}
	return append([]domain.PresentationPreview{pv}, list...)
}

func without(list []domain.PresentationPreview, id string) []domain.PresentationPreview {
	kept := make([]domain.PresentationPreview, 0, len(list))
	for _, pv := range list {
		if pv.ID != id {
			kept = append(kept, pv)
		}
	}
	return kept
}

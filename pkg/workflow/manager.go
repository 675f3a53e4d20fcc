// Package workflow はアプリケーションの状態を保持し、生成・保存・書き出しの各操作を調停します。
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/preview"
	"github.com/shouni/go-slide-kit/pkg/publisher"
)

const (
	msgGenerateFailed = "Failed to generate presentation. Please try again."
	msgQuota          = "There is not enough space in the local store."
	msgCompress       = "Could not compress images for saving."
	msgExportFailed   = "An error occurred while generating the PDF. Please try again."
)

// ErrSuperseded は生成中に新しい Generate が始まり、結果が破棄された場合のエラーです。
var ErrSuperseded = errors.New("generation superseded by a newer request")

// ManagerArgs は Manager の構築に必要な依存関係です。
type ManagerArgs struct {
	Generator SlideGenerator
	Assembler DeckAssembler
	Previews  PreviewStore
	Exporter  Exporter
	Notifier  Notifier
	Validator *domain.RequestValidator
}

// Manager は現在のプレゼンテーションを所有するコントローラです。
type Manager struct {
	generator SlideGenerator
	assembler DeckAssembler
	previews  PreviewStore
	exporter  Exporter
	notifier  Notifier
	validator *domain.RequestValidator

	mu      sync.Mutex
	current *domain.Presentation
	seq     uint64
}

// New は依存関係を検証して Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.Generator == nil {
		return nil, fmt.Errorf("generator は必須です")
	}
	if args.Assembler == nil {
		return nil, fmt.Errorf("assembler は必須です")
	}
	if args.Previews == nil {
		return nil, fmt.Errorf("previews は必須です")
	}
	if args.Exporter == nil {
		return nil, fmt.Errorf("exporter は必須です")
	}
	notifier := args.Notifier
	if notifier == nil {
		notifier = SlogNotifier{}
	}
	validator := args.Validator
	if validator == nil {
		validator = domain.NewRequestValidator()
	}
	return &Manager{
		generator: args.Generator,
		assembler: args.Assembler,
		previews:  args.Previews,
		exporter:  args.Exporter,
		notifier:  notifier,
		validator: validator,
	}, nil
}

// Generate は入力を検証し、新しいプレゼンテーションを生成して現在のものとして保持します。
// 検証に失敗した場合は外部への呼び出しを行わず *domain.ValidationError を返します。
// 完了前に新しい Generate が始まっていた場合は結果を破棄し ErrSuperseded を返します。
func (m *Manager) Generate(ctx context.Context, topic, style string) (*domain.Presentation, error) {
	req := domain.NormalizeRequest(topic, style)
	if err := m.validator.Validate(req); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = nil
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	images, err := m.generator.Execute(ctx, req)
	if err != nil {
		slog.Error("Presentation generation failed", "topic", req.Topic, "error", err)
		m.notifier.Notify(ctx, failure("Generation Failed", msgGenerateFailed))
		return nil, fmt.Errorf("プレゼンテーションの生成に失敗しました: %w", err)
	}
	p, err := m.assembler.Assemble(req, images)
	if err != nil {
		m.notifier.Notify(ctx, failure("Generation Failed", msgGenerateFailed))
		return nil, fmt.Errorf("プレゼンテーションの組み立てに失敗しました: %w", err)
	}

	m.mu.Lock()
	superseded := seq != m.seq
	if !superseded {
		m.current = p
	}
	m.mu.Unlock()

	if superseded {
		slog.Info("Discarded superseded presentation", "topic", req.Topic, "id", p.ID)
		return nil, ErrSuperseded
	}
	m.notifier.Notify(ctx, info("Success!", "Your presentation has been generated."))
	return p.Clone(), nil
}

// Current は現在のプレゼンテーションのコピーを返します。
func (m *Manager) Current() (*domain.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, domain.ErrNoPresentation
	}
	return m.current.Clone(), nil
}

// RenameSlide は現在のプレゼンテーションのスライド見出しを変更します。
func (m *Manager) RenameSlide(slideID, title string) (*domain.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, domain.ErrNoPresentation
	}
	if err := m.current.RenameSlide(slideID, title); err != nil {
		return nil, err
	}
	return m.current.Clone(), nil
}

// Save は現在のプレゼンテーションを保存済み一覧に upsert します。
// ストアへの書き込みに失敗した場合もメモリ上の一覧を返し、エラーを通知します。
func (m *Manager) Save(ctx context.Context) ([]domain.PresentationPreview, error) {
	p, err := m.Current()
	if err != nil {
		return m.previews.List(), err
	}

	list, err := m.previews.Save(ctx, p)
	switch {
	case err == nil:
		m.notifier.Notify(ctx, info("Presentation Saved", fmt.Sprintf("%q has been saved.", p.Topic)))
	case errors.Is(err, preview.ErrNotDurable):
		m.notifier.Notify(ctx, failure("Could not save presentation", msgQuota))
	default:
		m.notifier.Notify(ctx, failure("Save Failed", msgCompress))
	}
	return list, err
}

// Saved は保存済みプレビュー一覧を返します。
func (m *Manager) Saved() []domain.PresentationPreview {
	return m.previews.List()
}

// LoadSaved はストアから保存済み一覧を読み込みます。失敗しても空の一覧で続行できます。
func (m *Manager) LoadSaved(ctx context.Context) ([]domain.PresentationPreview, error) {
	list, err := m.previews.Load(ctx)
	if err != nil {
		m.notifier.Notify(ctx, failure("Error", "Could not load saved presentations."))
	}
	if list == nil {
		list = []domain.PresentationPreview{}
	}
	return list, err
}

// DeleteSaved は保存済み一覧から id を削除します。現在のプレゼンテーションと一致する場合はそれも破棄します。
func (m *Manager) DeleteSaved(ctx context.Context, id string) ([]domain.PresentationPreview, error) {
	list, err := m.previews.Delete(ctx, id)
	if err != nil {
		m.notifier.Notify(ctx, failure("Could not save presentation", msgQuota))
		return list, err
	}

	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current = nil
	}
	m.mu.Unlock()

	m.notifier.Notify(ctx, info("Presentation Deleted", ""))
	return list, nil
}

// Export は現在のプレゼンテーションを PDF として w に書き出し、推奨ファイル名を返します。
func (m *Manager) Export(ctx context.Context, w io.Writer) (string, error) {
	p, err := m.Current()
	if err != nil {
		return "", err
	}

	m.notifier.Notify(ctx, info("Preparing PDF...", "Please wait while we generate your file."))
	if err := m.exporter.Export(ctx, p, w); err != nil {
		m.notifier.Notify(ctx, failure("PDF Export Error", msgExportFailed))
		return "", fmt.Errorf("PDFの書き出しに失敗しました: %w", err)
	}
	m.notifier.Notify(ctx, info("Download Complete!", "Your PDF has been saved."))
	return publisher.FileName(p.Topic), nil
}

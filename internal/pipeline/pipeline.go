package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-slide-kit/internal/builder"
	"github.com/shouni/go-slide-kit/internal/config"
	"github.com/shouni/go-slide-kit/pkg/asset"
	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/workflow"
)

// Exporter は現在のプレゼンテーションを書き出す操作なのだ。
type Exporter interface {
	Export(ctx context.Context, w io.Writer) (string, error)
}

// Controller は一括実行で使うコントローラの操作なのだ。
type Controller interface {
	Exporter
	Generate(ctx context.Context, topic, style string) (*domain.Presentation, error)
	Save(ctx context.Context) ([]domain.PresentationPreview, error)
}

// Result は一括実行の結果なのだ。
type Result struct {
	Presentation *domain.Presentation
	Saved        bool
	SaveErr      error
	PDFPath      string
}

// Execute は設定からアプリケーションを組み立て、生成・保存・書き出しを順に実行するのだ。
func Execute(ctx context.Context, cfg *config.Config, opts config.GenerateOptions) (*Result, error) {
	if cfg.Kit.GeminiAPIKey == "" {
		return nil, builder.ErrMissingAPIKey
	}
	if opts.ImageModel != "" {
		cfg.Kit.ImageModel = opts.ImageModel
	}
	if opts.HTTPTimeout > 0 {
		cfg.HTTPTimeout = opts.HTTPTimeout
	}

	app, err := builder.BuildAppContext(ctx, cfg, workflow.SlogNotifier{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			slog.Warn("Failed to release resources", "error", cerr)
		}
	}()

	if opts.OutputDir == "" {
		opts.OutputDir = cfg.OutputDir
	}
	return Run(ctx, app.Manager, opts)
}

// Run はコントローラに対して生成と任意の保存・書き出しを実行するのだ。
// 保存の失敗は致命的ではなく、Result.SaveErr に記録して書き出しを続けるのだ。
func Run(ctx context.Context, ctrl Controller, opts config.GenerateOptions) (*Result, error) {
	slog.Info("スライド生成を開始するのだ...", "topic", opts.Topic, "style", opts.Style)
	p, err := ctrl.Generate(ctx, opts.Topic, opts.Style)
	if err != nil {
		return nil, err
	}
	res := &Result{Presentation: p}

	if opts.Save {
		if _, err := ctrl.Save(ctx); err != nil {
			slog.Warn("保存に失敗したのだ", "error", err)
			res.SaveErr = err
		} else {
			res.Saved = true
		}
	}

	if opts.PDF {
		path, err := ExportToFile(ctx, ctrl, opts.OutputDir)
		if err != nil {
			return res, err
		}
		res.PDFPath = path
	}
	return res, nil
}

// ExportToFile は現在のプレゼンテーションを outputDir 以下の PDF ファイルに保存するのだ。
// 書き出しが完了するまでファイルは作らないのだ。
func ExportToFile(ctx context.Context, exp Exporter, outputDir string) (string, error) {
	var buf bytes.Buffer
	name, err := exp.Export(ctx, &buf)
	if err != nil {
		return "", err
	}

	path, err := asset.ResolveOutputPath(outputDir, name)
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗したのだ: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗したのだ: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("PDFの保存に失敗したのだ: %w", err)
	}

	slog.Info("PDFを保存したのだ！", "path", path, "bytes", buf.Len())
	return path, nil
}

package builder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/go-slide-kit/internal/config"
	"github.com/shouni/go-slide-kit/pkg/asset"
	"github.com/shouni/go-slide-kit/pkg/deck"
	"github.com/shouni/go-slide-kit/pkg/gemini"
	"github.com/shouni/go-slide-kit/pkg/generator"
	"github.com/shouni/go-slide-kit/pkg/preview"
	"github.com/shouni/go-slide-kit/pkg/prompts"
	"github.com/shouni/go-slide-kit/pkg/publisher"
	"github.com/shouni/go-slide-kit/pkg/storage"
	"github.com/shouni/go-slide-kit/pkg/workflow"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"golang.org/x/time/rate"
)

const sqliteFileName = "slidekit.db"

// ErrMissingAPIKey は GEMINI_API_KEY が無い状態で画像生成を要求した場合のエラーです。
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY が設定されていません")

// BuildAppContext は設定から全コンポーネントを組み立て、保存済み一覧を読み込みます。
// APIキーが無い場合も保存済み一覧の操作は可能で、生成のみが ErrMissingAPIKey で失敗します。
func BuildAppContext(ctx context.Context, cfg *config.Config, notifier workflow.Notifier) (*AppContext, error) {
	app := &AppContext{Config: cfg}
	exportOpts, err := exporterOptions(cfg)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := BuildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}
	app.Store = storage.WithQuota(store, cfg.Kit.QuotaBytes)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher, err := asset.NewFetcher(httpClient, asset.WithLoadTimeout(cfg.HTTPTimeout))
	if err != nil {
		return nil, err
	}

	compressor, err := preview.NewThumbnailCompressor(fetcher)
	if err != nil {
		return nil, err
	}
	app.Gateway, err = preview.NewGateway(app.Store, compressor)
	if err != nil {
		return nil, err
	}

	exporter, err := publisher.NewPDFExporter(fetcher, exportOpts...)
	if err != nil {
		return nil, err
	}

	slideGen, err := BuildSlideGenerator(ctx, cfg, fetcher)
	if err != nil {
		return nil, err
	}

	app.Manager, err = workflow.New(workflow.ManagerArgs{
		Generator: slideGen,
		Assembler: deck.NewAssembler(),
		Previews:  app.Gateway,
		Exporter:  exporter,
		Notifier:  notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("コントローラの初期化に失敗しました: %w", err)
	}

	if _, err := app.Manager.LoadSaved(ctx); err != nil {
		slog.WarnContext(ctx, "保存済み一覧の読み込みに失敗しました。空の一覧で続行します", "error", err)
	}
	return app, nil
}

func exporterOptions(cfg *config.Config) ([]publisher.ExporterOption, error) {
	opts := []publisher.ExporterOption{publisher.WithPrefetch(cfg.Kit.ExportPrefetch)}
	if cfg.PDFFontFile == "" {
		return opts, nil
	}
	ttf, err := os.ReadFile(cfg.PDFFontFile)
	if err != nil {
		return nil, fmt.Errorf("PDF フォントを読み込めません: %w", err)
	}
	return append(opts, publisher.WithCaptionFont(ttf)), nil
}

// BuildSlideGenerator は Gemini の画像モデルを使う SlideImageGenerator を構築します。
func BuildSlideGenerator(ctx context.Context, cfg *config.Config, reader gemini.AssetReader) (*generator.SlideImageGenerator, error) {
	imgGen, err := InitializeImageGenerator(ctx, cfg, reader)
	if err != nil {
		return nil, err
	}

	opts := []generator.Option{
		generator.WithConcurrency(cfg.Kit.Concurrency),
		generator.WithRequestTimeout(cfg.Kit.RequestTimeout),
	}
	if cfg.Kit.RateInterval > 0 {
		opts = append(opts, generator.WithRateLimiter(rate.NewLimiter(rate.Every(cfg.Kit.RateInterval), 1)))
	}
	return generator.NewSlideImageGenerator(imgGen, prompts.NewImagePromptBuilder(cfg.Kit.PromptSuffix), opts...)
}

// InitializeImageGenerator は gemini-image-kit を使う ImageGenerator を初期化します。
// reader は参照画像の読み出しに使われます。
func InitializeImageGenerator(ctx context.Context, cfg *config.Config, reader gemini.AssetReader) (generator.ImageGenerator, error) {
	if cfg.Kit.GeminiAPIKey == "" {
		return unavailableImageModel{}, nil
	}
	if reader == nil {
		return nil, fmt.Errorf("AssetReader は必須です")
	}
	aiClient, err := gemini.NewClient(ctx, cfg.Kit.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	panels, err := gemini.NewPanelGenerator(aiClient, reader, httpkit.New(cfg.HTTPTimeout), cfg.Kit.ImageModel)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}
	return gemini.NewImageModel(panels)
}

// BuildStore は STORE_DRIVER に応じたストアを返します。closer が nil でない場合は終了時に呼び出します。
func BuildStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, nil
	case config.DriverFile:
		s, err := storage.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.DriverSQLite, config.DriverPostgres:
		return openSQLStore(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("未対応のストアです: %s", cfg.StoreDriver)
	}
}

func openSQLStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	dsn := cfg.StoreDSN
	if dsn == "" {
		if cfg.StoreDriver == config.DriverPostgres {
			return nil, nil, fmt.Errorf("postgres には STORE_DSN が必要です")
		}
		if err := os.MkdirAll(cfg.StoreDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
		}
		dsn = filepath.Join(cfg.StoreDir, sqliteFileName)
	}

	db, err := sql.Open(cfg.StoreDriver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("データベースを開けません: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("データベースに接続できません: %w", err)
	}

	s, err := storage.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("SQL store ready", "driver", cfg.StoreDriver)
	return s, db.Close, nil
}

// unavailableImageModel は APIキーが無い場合に使われ、常に ErrMissingAPIKey を返します。
type unavailableImageModel struct{}

func (unavailableImageModel) GenerateImage(context.Context, string) (*generator.ImageResult, error) {
	return nil, ErrMissingAPIKey
}

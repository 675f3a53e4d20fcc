package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kitconfig "github.com/shouni/go-slide-kit/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultStoreDriver = DriverFile
	DefaultStoreDir    = ".slidekit"
	DefaultListenAddr  = ":8080"
	DefaultOutputDir   = "output"
)

// ストアのドライバ名なのだ
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	Kit kitconfig.Config

	HTTPTimeout time.Duration

	StoreDriver string
	StoreDSN    string
	StoreDir    string

	ListenAddr string
	OutputDir  string

	// PDFFontFile は PDF の見出しに使う TrueType フォントなのだ。空なら Go Regular なのだ。
	PDFFontFile string
}

// LoadConfig は .env と環境変数から設定を読み込むのだ！
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded", "error", err)
	}

	kit := kitconfig.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", kit.ImageModel)
	kit.PromptSuffix = envutil.GetEnv("IMAGE_PROMPT_SUFFIX", kit.PromptSuffix)

	var err error
	if kit.RateInterval, err = durationEnv("RATE_INTERVAL", kit.RateInterval); err != nil {
		return nil, err
	}
	if kit.Concurrency, err = intEnv("IMAGE_CONCURRENCY", kit.Concurrency); err != nil {
		return nil, err
	}
	if kit.RequestTimeout, err = durationEnv("IMAGE_REQUEST_TIMEOUT", kit.RequestTimeout); err != nil {
		return nil, err
	}
	if kit.QuotaBytes, err = intEnv("STORE_QUOTA_BYTES", kit.QuotaBytes); err != nil {
		return nil, err
	}
	if kit.ExportPrefetch, err = intEnv("EXPORT_PREFETCH", kit.ExportPrefetch); err != nil {
		return nil, err
	}

	cfg := &Config{
		Kit:         kit,
		StoreDriver: envutil.GetEnv("STORE_DRIVER", DefaultStoreDriver),
		StoreDSN:    envutil.GetEnv("STORE_DSN", ""),
		StoreDir:    envutil.GetEnv("STORE_DIR", DefaultStoreDir),
		ListenAddr:  envutil.GetEnv("LISTEN_ADDR", DefaultListenAddr),
		OutputDir:   envutil.GetEnv("OUTPUT_DIR", DefaultOutputDir),
		PDFFontFile: envutil.GetEnv("PDF_FONT_FILE", ""),
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case DriverFile, DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER が不正なのだ: %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	Topic     string // --topic
	Style     string // --style
	Save      bool   // --save
	PDF       bool   // --pdf
	OutputDir string // --output-dir

	ImageModel  string        // --image-model
	HTTPTimeout time.Duration // --http-timeout
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正なのだ: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正なのだ: %w", key, err)
	}
	return n, nil
}

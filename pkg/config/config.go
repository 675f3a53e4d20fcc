package config

import (
	"time"

	"github.com/shouni/go-slide-kit/pkg/prompts"
)

// デフォルト値の定義
const (
	DefaultImageModel     = "gemini-2.5-flash-image"
	DefaultRateInterval   = time.Duration(0)
	DefaultConcurrency    = 0
	DefaultExportPrefetch = 0
	DefaultQuotaBytes     = 5 << 20
	DefaultRequestTimeout = 2 * time.Minute
)

// Config は Go Slide Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	ImageModel   string

	// --- Generation Settings ---
	PromptSuffix string
	RateInterval time.Duration // 0 は無制限
	Concurrency  int           // 同時に発行する画像生成リクエスト数。0 は6件同時

	// --- Persistence & Export Settings ---
	QuotaBytes     int
	ExportPrefetch int // 0 は1ページずつ順に取得

	// --- Timeout ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		ImageModel:     DefaultImageModel,
		PromptSuffix:   prompts.DefaultPromptSuffix,
		RateInterval:   DefaultRateInterval,
		Concurrency:    DefaultConcurrency,
		QuotaBytes:     DefaultQuotaBytes,
		ExportPrefetch: DefaultExportPrefetch,
		RequestTimeout: DefaultRequestTimeout,
	}
}

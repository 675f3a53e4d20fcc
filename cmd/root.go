package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-slide-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

const appName = "slidekit"

var (
	logLevel string
	appCfg   *config.Config
)

// addAppFlags は、全コマンド共通のグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "ログレベル（debug, info, warn, error）なのだ。")
}

// preRunAppE は、ロガーの準備と環境変数からの設定読み込みを行うのだ。
// APIキーが無くても保存済み一覧は扱えるので、ここでは必須チェックしないのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("--log-level が不正なのだ: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗したのだ: %w", err)
	}
	appCfg = cfg
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		appName,
		addAppFlags,
		preRunAppE,
		generateCmd,
		savedCmd,
		serveCmd,
		mcpCmd,
	)
}

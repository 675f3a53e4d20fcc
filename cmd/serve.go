package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-slide-kit/internal/builder"
	"github.com/shouni/go-slide-kit/internal/server"
	"github.com/shouni/go-slide-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd は HTTP API と WebSocket の通知を提供するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP サーバーを起動するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := server.NewHub()
		app, err := builder.BuildAppContext(ctx, appCfg, workflow.MultiNotifier{hub, workflow.SlogNotifier{}})
		if err != nil {
			return err
		}
		defer closeApp(app)

		addr := listenAddr
		if addr == "" {
			addr = appCfg.ListenAddr
		}
		return server.Run(ctx, addr, server.NewHandler(app.Manager), hub)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "待ち受けアドレスなのだ (既定は LISTEN_ADDR)。")
}

package cmd

import (
	"github.com/shouni/go-slide-kit/internal/builder"
	"github.com/shouni/go-slide-kit/internal/mcp"
	"github.com/shouni/go-slide-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

// mcpCmd は標準入出力で MCP ツールサーバーを起動するのだ。
// 標準出力はプロトコルが使うので、ログは標準エラーだけに出すのだよ。
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP ツールサーバーを標準入出力で起動するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := builder.BuildAppContext(cmd.Context(), appCfg, workflow.SlogNotifier{})
		if err != nil {
			return err
		}
		defer closeApp(app)

		return mcp.ServeStdio(mcp.NewServer(app.Manager, appCfg.OutputDir))
	},
}

package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-slide-kit/internal/builder"
	"github.com/shouni/go-slide-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

var assumeYes bool

// savedCmd は保存済みプレゼンテーションを操作するのだ。
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "保存済みプレゼンテーションを操作するのだ。",
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "保存済み一覧を新しい順に表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := builder.BuildAppContext(cmd.Context(), appCfg, workflow.SlogNotifier{})
		if err != nil {
			return err
		}
		defer closeApp(app)

		list := app.Manager.Saved()
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "保存済みのプレゼンテーションは無いのだ。")
			return nil
		}
		for _, p := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.Style.DisplayName(), p.Topic)
		}
		return nil
	},
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "保存済みプレゼンテーションを削除するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if !assumeYes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s を削除するのだ？ [y/N]: ", id)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "キャンセルしたのだ。")
				return nil
			}
		}

		app, err := builder.BuildAppContext(cmd.Context(), appCfg, workflow.SlogNotifier{})
		if err != nil {
			return err
		}
		defer closeApp(app)

		if _, err := app.Manager.DeleteSaved(cmd.Context(), id); err != nil {
			return fmt.Errorf("削除に失敗したのだ: %w", err)
		}
		return nil
	},
}

func init() {
	savedDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "確認せずに削除するのだ。")
	savedCmd.AddCommand(savedListCmd, savedDeleteCmd)
}

func closeApp(app *builder.AppContext) {
	if err := app.Close(); err != nil {
		slog.Warn("リソースの解放に失敗したのだ", "error", err)
	}
}

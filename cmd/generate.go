package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-slide-kit/internal/config"
	"github.com/shouni/go-slide-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var opts config.GenerateOptions

// generateCmd は、トピックから6枚のスライド画像を生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "トピックからスライドを生成するのだ。",
	Long: `トピックとスタイルから6枚のスライド画像を並列に生成するのだ。
--save でプレビューを保存し、--pdf で横向きA4のPDFを書き出すのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.Topic, "topic", "t", "", "プレゼンテーションのトピックなのだ。")
	generateCmd.Flags().StringVarP(&opts.Style, "style", "s", "business", "スタイル (business, educational, creative) なのだ。")
	generateCmd.Flags().BoolVar(&opts.Save, "save", false, "生成後にプレビューを保存するのだ。")
	generateCmd.Flags().BoolVar(&opts.PDF, "pdf", false, "生成後にPDFを書き出すのだ。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "PDFの出力先ディレクトリなのだ。")
	generateCmd.Flags().StringVar(&opts.ImageModel, "image-model", "", "使用する Gemini 画像モデル名なのだ。")
	generateCmd.Flags().DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "画像取得のタイムアウトなのだ。")
	_ = generateCmd.MarkFlagRequired("topic")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	res, err := pipeline.Execute(ctx, appCfg, opts)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	for i, s := range res.Presentation.Slides {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, s.Title)
	}
	if res.PDFPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "PDF: %s\n", res.PDFPath)
	}
	if res.SaveErr != nil {
		slog.Warn("保存はできなかったけど生成は完了したのだ", "error", res.SaveErr)
	}
	slog.Info("すべての生成工程が完了したのだ！", "id", res.Presentation.ID)
	return nil
}

package asset

import (
	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir はエクスポートしたPDFを格納するデフォルトのディレクトリ名です。
	DefaultOutputDir = "output"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if baseDir == "" {
		baseDir = DefaultOutputDir
	}
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

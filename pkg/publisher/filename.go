package publisher

import (
	"regexp"
	"strings"
)

const fileNameSuffix = "_presentation.pdf"

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName はトピックからエクスポートファイル名を作ります。空白の連続は "_" に置き換えます。
// パス区切り文字も "_" にします。
func FileName(topic string) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(topic), "_")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if name == "" {
		name = "untitled"
	}
	return name + fileNameSuffix
}

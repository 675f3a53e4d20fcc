package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-slide-kit/pkg/domain"
)

// DefaultPromptSuffix は各スライドのプロンプト末尾に付ける既定の指示です。
const DefaultPromptSuffix = "The image should be relevant to the slide type and presentation topic."

const slidePromptTemplate = "Generate an image for a presentation about %s. This image is for the %s slide. The presentation style is %s."

// BuildSlidePrompt は topic・役割・スタイルを固定テンプレートに埋め込んだプロンプトを返します。
func BuildSlidePrompt(topic string, role domain.Role, style domain.Style) string {
	return fmt.Sprintf(slidePromptTemplate, topic, role.PromptName(), style)
}

// ImagePromptBuilder はスライド用プロンプトに共通サフィックスを付与します。
type ImagePromptBuilder struct {
	suffix string
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。suffix が空ならテンプレートのみになります。
func NewImagePromptBuilder(suffix string) *ImagePromptBuilder {
	return &ImagePromptBuilder{suffix: strings.TrimSpace(suffix)}
}

// BuildSlidePrompt は1枚分のプロンプトを構築します。
func (pb *ImagePromptBuilder) BuildSlidePrompt(req domain.GenerationRequest, role domain.Role) string {
	prompt := BuildSlidePrompt(req.Topic, role, req.Style)
	if pb == nil || pb.suffix == "" {
		return prompt
	}
	return prompt + " " + pb.suffix
}

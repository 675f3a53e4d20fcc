package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinTopicLength はトピックに必要な最小文字数です。
const MinTopicLength = 3

// GenerationRequest はユーザー入力から作られる生成要求です。
type GenerationRequest struct {
	Topic string `json:"topic"`
	Style Style  `json:"style"`
}

// FieldError は1フィールド分の検証エラーです。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError は失敗した全フィールドをまとめたエラーです。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, ", ")
}

// FieldRule は1フィールドの検証ルールです。問題がなければ空文字を返します。
type FieldRule struct {
	Field string
	Check func(req GenerationRequest) string
}

// RequestValidator はフィールドルールを順番に評価するスキーマです。
type RequestValidator struct {
	rules []FieldRule
}

// NewRequestValidator は topic と style のルールを持つ標準のバリデーターを返します。
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		rules: []FieldRule{
			{Field: "topic", Check: checkTopic},
			{Field: "style", Check: checkStyle},
		},
	}
}

// Validate は全ルールを評価し、失敗があれば *ValidationError を返します。
func (v *RequestValidator) Validate(req GenerationRequest) error {
	var fields []FieldError
	for _, rule := range v.rules {
		if msg := rule.Check(req); msg != "" {
			fields = append(fields, FieldError{Field: rule.Field, Message: msg})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NormalizeRequest は前後の空白を除き、スタイルを小文字に揃えた要求を返します。検証はしません。
func NormalizeRequest(topic, style string) GenerationRequest {
	return GenerationRequest{
		Topic: strings.TrimSpace(topic),
		Style: Style(strings.ToLower(strings.TrimSpace(style))),
	}
}

// NewGenerationRequest は入力を正規化して検証済みの要求を作ります。
func NewGenerationRequest(topic, style string) (GenerationRequest, error) {
	req := NormalizeRequest(topic, style)
	if err := NewRequestValidator().Validate(req); err != nil {
		return GenerationRequest{}, err
	}
	return req, nil
}

func checkTopic(req GenerationRequest) string {
	if utf8.RuneCountInString(strings.TrimSpace(req.Topic)) < MinTopicLength {
		return fmt.Sprintf("Topic must be at least %d characters.", MinTopicLength)
	}
	return ""
}

func checkStyle(req GenerationRequest) string {
	if !req.Style.Valid() {
		return fmt.Sprintf("Style must be one of %s.", styleList())
	}
	return ""
}

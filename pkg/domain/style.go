package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style はプレゼンテーションの雰囲気を表す列挙型です。
type Style string

const (
	StyleBusiness    Style = "business"
	StyleEducational Style = "educational"
	StyleCreative    Style = "creative"
)

// Styles は選択可能なスタイルを表示順で返します。
func Styles() []Style {
	return []Style{StyleBusiness, StyleEducational, StyleCreative}
}

// ParseStyle は文字列をスタイルに変換します。大文字小文字と前後の空白は無視します。
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown style %q (want one of %s)", s, styleList())
	}
	return st, nil
}

// Valid はスタイルが列挙値のいずれかであるかを返します。
func (s Style) Valid() bool {
	for _, st := range Styles() {
		if s == st {
			return true
		}
	}
	return false
}

// DisplayName は画面表示用に先頭を大文字にした名前を返します (例: "Business")。
func (s Style) DisplayName() string {
	return cases.Title(language.English).String(string(s))
}

func (s Style) String() string {
	return string(s)
}

func styleList() string {
	names := make([]string, 0, len(Styles()))
	for _, st := range Styles() {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

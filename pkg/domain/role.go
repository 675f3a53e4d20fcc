package domain

import "fmt"

// Role はデッキ内のスライドの固定された役割です。
type Role int

const (
	RoleTitle Role = iota
	RoleIntroduction
	RoleContent1
	RoleContent2
	RoleContent3
	RoleConclusion
)

// SlideCount は1つのプレゼンテーションに含まれるスライド数です。
const SlideCount = 6

type roleInfo struct {
	promptName   string
	defaultTitle string
}

var roleTable = [SlideCount]roleInfo{
	RoleTitle:        {promptName: "title", defaultTitle: "Title Slide"},
	RoleIntroduction: {promptName: "introduction", defaultTitle: "Introduction"},
	RoleContent1:     {promptName: "content 1", defaultTitle: "Main Content 1"},
	RoleContent2:     {promptName: "content 2", defaultTitle: "Main Content 2"},
	RoleContent3:     {promptName: "content 3", defaultTitle: "Main Content 3"},
	RoleConclusion:   {promptName: "conclusion", defaultTitle: "Conclusion"},
}

// Roles は正規のスライド順で全ての役割を返します。
func Roles() []Role {
	return []Role{RoleTitle, RoleIntroduction, RoleContent1, RoleContent2, RoleContent3, RoleConclusion}
}

// Valid は役割が定義済みの範囲に収まっているかを返します。
func (r Role) Valid() bool {
	return r >= RoleTitle && r <= RoleConclusion
}

// PromptName はプロンプトに埋め込む役割名です (例: "content 1")。
func (r Role) PromptName() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleTable[r].promptName
}

// DefaultTitle は生成直後のスライドに付けるタイトルです。
func (r Role) DefaultTitle() string {
	if !r.Valid() {
		return ""
	}
	return roleTable[r].defaultTitle
}

// SlideID はこの役割のスライドに割り当てる安定したIDです (slide_1 ... slide_6)。
func (r Role) SlideID() string {
	return fmt.Sprintf("slide_%d", int(r)+1)
}

func (r Role) String() string {
	return r.PromptName()
}

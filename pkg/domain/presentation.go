package domain

import (
	"errors"
	"time"
)

var (
	// ErrSlideNotFound は指定IDのスライドが存在しない場合に返されます。
	ErrSlideNotFound = errors.New("slide not found")
	// ErrNoPresentation は操作対象のプレゼンテーションが存在しない場合に返されます。
	ErrNoPresentation = errors.New("no presentation")
)

// Slide は生成済み画像とユーザーが編集可能なタイトルを持つ1枚のスライドです。
type Slide struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"` // http(s) URL または data URL
}

// Presentation はフル解像度の画像を持つメモリ上のデッキです。
// 6枚の画像が全て揃ったときにだけ組み立てられます。
type Presentation struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Style     Style     `json:"style"`
	CreatedAt time.Time `json:"createdAt"`
	Slides    []Slide   `json:"slides"`
}

// Clone はスライドのスライスまで複製したコピーを返します。
func (p *Presentation) Clone() *Presentation {
	if p == nil {
		return nil
	}
	c := *p
	c.Slides = make([]Slide, len(p.Slides))
	copy(c.Slides, p.Slides)
	return &c
}

// RenameSlide は指定スライドのタイトルを書き換えます。画像URLは変更しません。
func (p *Presentation) RenameSlide(slideID, title string) error {
	for i := range p.Slides {
		if p.Slides[i].ID == slideID {
			p.Slides[i].Title = title
			return nil
		}
	}
	return ErrSlideNotFound
}

// Titles はスライドのタイトルを順番に返します。
func (p *Presentation) Titles() []string {
	titles := make([]string, len(p.Slides))
	for i, s := range p.Slides {
		titles[i] = s.Title
	}
	return titles
}

// SlidePreview は保存用に圧縮されたスライドです。
type SlidePreview struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// PresentationPreview はストアに保存される Presentation の圧縮版です。
type PresentationPreview struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Style     Style          `json:"style"`
	CreatedAt time.Time      `json:"createdAt"`
	Slides    []SlidePreview `json:"slides"`
}

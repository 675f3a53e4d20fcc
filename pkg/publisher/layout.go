package publisher

// captionTopMargin は画像の上に見出しを置けるかどうかの境界です。
const (
	captionTopMargin = 15
	captionGap       = 5
	captionFallbackY = 10
)

// Placement はページ上の画像と見出しの配置です。
type Placement struct {
	X, Y     float64 // 画像の左上
	W, H     float64 // 描画サイズ
	CaptionX float64
	CaptionY float64 // 見出しのベースライン
}

// FitToPage はアスペクト比を保ったまま画像をページに収め、中央に配置します。
// まずページ幅に合わせ、高さがはみ出す場合はページ高さに合わせ直します。
func FitToPage(imgW, imgH, pageW, pageH float64) Placement {
	ratio := imgH / imgW
	w := pageW
	h := pageW * ratio
	if h > pageH {
		h = pageH
		w = pageH / ratio
	}

	x := (pageW - w) / 2
	y := (pageH - h) / 2

	p := Placement{X: x, Y: y, W: w, H: h, CaptionX: x, CaptionY: captionFallbackY}
	if y > captionTopMargin {
		p.CaptionY = y - captionGap
	}
	return p
}

// Package publisher はプレゼンテーションを1スライド1ページの PDF に書き出します。
package publisher

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"time"

	"github.com/shouni/go-slide-kit/pkg/asset"
	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/task"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pageOrientation = "L"
	pageUnit        = "pt"
	pageSize        = "A4"
	captionFont     = "caption"
	captionSize     = 12
)

// ImageSource は画像の参照からバイト列を取得します。
type ImageSource interface {
	Fetch(ctx context.Context, ref string) (*asset.Asset, error)
}

// PDFExporter は Presentation を A4 横向きの PDF に変換します。
type PDFExporter struct {
	source   ImageSource
	prefetch int
	now      func() time.Time
	font     []byte
}

// ExporterOption は PDFExporter の挙動を調整します。
type ExporterOption func(*PDFExporter)

// WithPrefetch は n 件までの画像を並列に先読みします。0 の場合は1ページずつ順に取得します。
// ページの順序はスライドの順序のまま変わりません。
func WithPrefetch(n int) ExporterOption {
	return func(e *PDFExporter) { e.prefetch = n }
}

// WithExportClock は PDF の作成日時に使う時刻源を設定します。
func WithExportClock(now func() time.Time) ExporterOption {
	return func(e *PDFExporter) { e.now = now }
}

// WithCaptionFont は見出しに使う TrueType フォントを設定します。
// 既定の Go Regular は CJK の字形を持たないため、日本語の見出しにはそれを収録したフォントを渡します。
func WithCaptionFont(ttf []byte) ExporterOption {
	return func(e *PDFExporter) {
		if len(ttf) > 0 {
			e.font = ttf
		}
	}
}

// NewPDFExporter は PDFExporter を初期化します。
func NewPDFExporter(source ImageSource, opts ...ExporterOption) (*PDFExporter, error) {
	if source == nil {
		return nil, fmt.Errorf("ImageSource は必須です")
	}
	e := &PDFExporter{source: source, now: time.Now, font: goregular.TTF}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// pageImage は1ページ分の埋め込み可能な画像です。
type pageImage struct {
	data      []byte
	imageType string
	width     int
	height    int
}

// Export は全スライドを描画した PDF を w に書き出します。
// 途中で画像の取得に失敗した場合は w に何も書き込みません。
func (e *PDFExporter) Export(ctx context.Context, p *domain.Presentation, w io.Writer) error {
	if p == nil {
		return domain.ErrNoPresentation
	}
	start := time.Now()

	pdf := fpdf.New(pageOrientation, pageUnit, pageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreationDate(e.now())
	pdf.SetTitle(p.Topic, true)
	pdf.AddUTF8FontFromBytes(captionFont, "", e.font)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("見出しフォントの登録に失敗しました: %w", err)
	}

	n := len(p.Slides)
	render := func(i int, img *pageImage) error {
		return addSlidePage(pdf, i, p.Slides[i], img)
	}

	var err error
	if e.prefetch > 0 {
		err = e.exportPrefetched(ctx, p, render)
	} else {
		err = task.Sequential(ctx, n, func(ctx context.Context, i int) error {
			img, err := e.load(ctx, p.Slides[i])
			if err != nil {
				return err
			}
			return render(i, img)
		})
	}
	if err != nil {
		slog.Error("PDF export aborted", "id", p.ID, "error", err)
		return err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("PDFの生成に失敗しました: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("PDFの書き込みに失敗しました: %w", err)
	}

	slog.Info("PDF exported",
		"id", p.ID,
		"pages", n,
		"bytes", buf.Len(),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (e *PDFExporter) exportPrefetched(ctx context.Context, p *domain.Presentation, render func(int, *pageImage) error) error {
	images := make([]*pageImage, len(p.Slides))
	err := task.JoinAll(ctx, len(p.Slides), e.prefetch, func(ctx context.Context, i int) error {
		img, err := e.load(ctx, p.Slides[i])
		if err != nil {
			return err
		}
		images[i] = img
		return nil
	})
	if err != nil {
		return err
	}
	for i, img := range images {
		if err := render(i, img); err != nil {
			return err
		}
	}
	return nil
}

// load は画像を取得し PDF に埋め込める形式に揃えます。
func (e *PDFExporter) load(ctx context.Context, s domain.Slide) (*pageImage, error) {
	a, err := e.source.Fetch(ctx, s.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("スライド %s の画像を取得できません: %w", s.ID, err)
	}
	cfg, err := asset.DecodeConfig(a.Data)
	if err != nil {
		return nil, fmt.Errorf("スライド %s: %w", s.ID, err)
	}

	img := &pageImage{data: a.Data, width: cfg.Width, height: cfg.Height}
	switch cfg.Format {
	case "png":
		img.imageType = "PNG"
	case "jpeg":
		img.imageType = "JPG"
	case "gif":
		img.imageType = "GIF"
	default:
		decoded, _, err := asset.Decode(a.Data)
		if err != nil {
			return nil, fmt.Errorf("スライド %s: %w", s.ID, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, decoded); err != nil {
			return nil, fmt.Errorf("スライド %s の PNG 変換に失敗しました: %w", s.ID, err)
		}
		img.data = buf.Bytes()
		img.imageType = "PNG"
	}
	return img, nil
}

func addSlidePage(pdf *fpdf.Fpdf, i int, s domain.Slide, img *pageImage) error {
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(0, 0, pageW, pageH, "F")

	pl := FitToPage(float64(img.width), float64(img.height), pageW, pageH)
	name := fmt.Sprintf("slide_%d", i+1)
	opt := fpdf.ImageOptions{ImageType: img.imageType}
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.data))
	pdf.ImageOptions(name, pl.X, pl.Y, pl.W, pl.H, false, opt, 0, "")

	pdf.SetFont(captionFont, "", captionSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(pl.CaptionX, pl.CaptionY, s.Title)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("スライド %s の描画に失敗しました: %w", s.ID, err)
	}
	return nil
}

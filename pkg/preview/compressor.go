// Package preview はプレゼンテーションの縮小プレビューを作成し、ローカルストアに永続化します。
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/shouni/go-slide-kit/pkg/asset"

	"github.com/gogpu/gg"
	"github.com/vincent-petithory/dataurl"
)

const (
	// DefaultMaxWidth はサムネイルの最大幅です。
	DefaultMaxWidth = 400
	// DefaultJPEGQuality はサムネイルの JPEG 品質です。
	DefaultJPEGQuality = 50
)

var (
	// ErrDecode は元画像をデコードできない場合のエラーです。
	ErrDecode = errors.New("failed to decode image")
	// ErrCanvas は描画面を確保またはエンコードできない場合のエラーです。
	ErrCanvas = errors.New("failed to render thumbnail")
)

// ImageSource は画像の参照からバイト列を取得します。
type ImageSource interface {
	Fetch(ctx context.Context, ref string) (*asset.Asset, error)
}

// ThumbnailCompressor は画像を縮小し、JPEG の data URL に変換します。
type ThumbnailCompressor struct {
	source   ImageSource
	maxWidth int
	quality  int
}

// NewThumbnailCompressor は ThumbnailCompressor を初期化します。
func NewThumbnailCompressor(source ImageSource) (*ThumbnailCompressor, error) {
	if source == nil {
		return nil, fmt.Errorf("ImageSource は必須です")
	}
	return &ThumbnailCompressor{
		source:   source,
		maxWidth: DefaultMaxWidth,
		quality:  DefaultJPEGQuality,
	}, nil
}

// Compress は画像を最大幅に収まるよう縮小し data:image/jpeg URL を返します。
// 最大幅より小さい画像は拡大しません。
func (c *ThumbnailCompressor) Compress(ctx context.Context, imageURL string) (string, error) {
	a, err := c.source.Fetch(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	img, _, err := asset.Decode(a.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}

	b := img.Bounds()
	w, h := thumbnailSize(b.Dx(), b.Dy(), c.maxWidth)
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("%w: invalid size %dx%d", ErrCanvas, w, h)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.White)
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:      float64(w),
		DstHeight:     float64(h),
		Interpolation: gg.InterpBilinear,
		Opacity:       1.0,
	})

	var buf bytes.Buffer
	if err := dc.EncodeJPEG(&buf, c.quality); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCanvas, err)
	}
	return dataurl.New(buf.Bytes(), "image/jpeg").String(), nil
}

// thumbnailSize は幅を maxWidth 以下に収めた際のサイズを返します。
func thumbnailSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth {
		return w, h
	}
	nh := int(float64(h)*float64(maxWidth)/float64(w) + 0.5)
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}

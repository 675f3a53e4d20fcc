// Package asset はスライド画像の取得と各種パス解決を提供します。
package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxBytes は1枚の画像として受け付ける最大サイズです。
	DefaultMaxBytes = 20 << 20
	// DefaultLoadTimeout は集約された1回の取得にかける最大時間です。
	DefaultLoadTimeout = 60 * time.Second

	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
)

// ErrTooLarge は画像が上限サイズを超えた場合のエラーです。
var ErrTooLarge = errors.New("image exceeds size limit")

// Asset は取得済みの画像データです。
type Asset struct {
	Data     []byte
	MimeType string
}

// HTTPDoer は Fetcher が利用する HTTP クライアントです。
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher は data URL または http(s) URL から画像を取得し、結果をキャッシュします。
type Fetcher struct {
	client   HTTPDoer
	cache    *cache.Cache
	group    singleflight.Group
	maxBytes int64
	timeout  time.Duration
}

// FetcherOption は Fetcher の挙動を調整します。
type FetcherOption func(*Fetcher)

// WithMaxBytes は1枚あたりの最大サイズを設定します。
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) { f.maxBytes = n }
}

// WithLoadTimeout は集約された取得1回あたりのタイムアウトを設定します。
func WithLoadTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithCache は取得結果を保持するキャッシュを差し替えます。
func WithCache(c *cache.Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// NewFetcher は Fetcher を初期化します。
func NewFetcher(client HTTPDoer, opts ...FetcherOption) (*Fetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	f := &Fetcher{
		client:   client,
		cache:    cache.New(defaultCacheExpiration, cacheCleanupInterval),
		maxBytes: DefaultMaxBytes,
		timeout:  DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch は参照先の画像を取得します。同じ参照への同時リクエストは1回に集約されます。
// 集約された取得は呼び出し元のキャンセルから切り離して実行され、各呼び出し元は自身の ctx が終わった時点で待機をやめます。
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Asset, error) {
	if ref == "" {
		return nil, fmt.Errorf("画像の参照が空です")
	}
	key := cacheKey(ref)
	if v, ok := f.cache.Get(key); ok {
		if a, ok := v.(*Asset); ok {
			return a, nil
		}
	}

	ch := f.group.DoChan(key, func() (interface{}, error) {
		if v, ok := f.cache.Get(key); ok {
			return v, nil
		}
		loadCtx, cancel := f.loadContext(ctx)
		defer cancel()
		a, err := f.load(loadCtx, ref)
		if err != nil {
			return nil, err
		}
		f.cache.SetDefault(key, a)
		return a, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	a, ok := res.Val.(*Asset)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", res.Val)
	}
	return a, nil
}

// Open は参照先の画像を取得し、そのバイト列を読み出す ReadCloser を返します。
func (f *Fetcher) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	a, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(a.Data)), nil
}

func (f *Fetcher) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if f.timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, f.timeout)
}

func (f *Fetcher) load(ctx context.Context, ref string) (*Asset, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return f.decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.download(ctx, ref)
	default:
		return nil, fmt.Errorf("サポートされていない画像の参照です: %.32s", ref)
	}
}

func (f *Fetcher) decodeDataURL(ref string) (*Asset, error) {
	du, err := dataurl.DecodeString(ref)
	if err != nil {
		return nil, fmt.Errorf("data URL のデコードに失敗しました: %w", err)
	}
	if int64(len(du.Data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return &Asset{Data: du.Data, MimeType: du.MediaType.ContentType()}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (*Asset, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("画像の取得に失敗しました: %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み込みに失敗しました: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || strings.HasPrefix(mime, "application/octet-stream") {
		mime = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	slog.Debug("Image downloaded", "url", url, "bytes", len(data), "duration", time.Since(start).Round(time.Millisecond))
	return &Asset{Data: data, MimeType: mime}, nil
}

func cacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}

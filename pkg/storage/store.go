// Package storage はプレビュー一覧を保持するローカルのキーバリューストアを提供します。
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// DefaultQuotaBytes はブラウザの localStorage と同程度の既定の容量上限です。
const DefaultQuotaBytes = 5 << 20

var (
	// ErrQuotaExceeded は書き込みが容量上限を超えた場合のエラーです。
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidKey はキーに使えない文字が含まれる場合のエラーです。
	ErrInvalidKey = errors.New("invalid storage key")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Store は文字列値を保持する同期的なキーバリューストアです。
type Store interface {
	// Get はキーの値を返します。キーが存在しない場合 ok は false です。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set はキーの値を置き換えます。
	Set(ctx context.Context, key, value string) error
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// quotaStore は書き込みサイズを制限する Store のデコレータです。
type quotaStore struct {
	Store
	maxBytes int
}

// WithQuota は値のサイズが maxBytes を超える書き込みを ErrQuotaExceeded で拒否する Store を返します。
// maxBytes が 0 以下の場合は store をそのまま返します。
func WithQuota(store Store, maxBytes int) Store {
	if maxBytes <= 0 {
		return store
	}
	return &quotaStore{Store: store, maxBytes: maxBytes}
}

func (q *quotaStore) Set(ctx context.Context, key, value string) error {
	if size := len(key) + len(value); size > q.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrQuotaExceeded, size, q.maxBytes)
	}
	return q.Store.Set(ctx, key, value)
}

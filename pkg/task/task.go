// Package task は固定数のタスクを「並列実行して全件待つ」「順番に実行する」ための小さなスケジューラです。
package task

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Func は i 番目のタスク本体です。
type Func func(ctx context.Context, i int) error

// JoinAll は n 個のタスクを並列に実行し、全てが終わるまで待ちます。
// 失敗したタスクがあっても残りはキャンセルせず、非nilのエラーをインデックス順に結合して返します。
// limit が 0 以下なら同時実行数を制限しません。
func JoinAll(ctx context.Context, n, limit int, fn Func) error {
	if n <= 0 {
		return nil
	}

	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}

	errs := make([]error, n)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = eg.Wait()

	return errors.Join(errs...)
}

// Sequential は n 個のタスクを順番に実行し、最初のエラーで停止します。
// 各タスクの前にコンテキストのキャンセルを確認します。
func Sequential(ctx context.Context, n int, fn Func) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

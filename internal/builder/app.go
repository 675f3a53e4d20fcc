package builder

import (
	"errors"

	"github.com/shouni/go-slide-kit/internal/config"
	"github.com/shouni/go-slide-kit/pkg/preview"
	"github.com/shouni/go-slide-kit/pkg/storage"
	"github.com/shouni/go-slide-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各サーフェス（CLI / HTTP / MCP）に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config    // Configは、環境変数から読み込まれた設定です。
	Manager *workflow.Manager // Managerは、現在のプレゼンテーションを所有するコントローラです。
	Gateway *preview.Gateway  // Gatewayは、保存済みプレビュー一覧の永続化を担います。
	Store   storage.Store     // Storeは、プレビュー一覧を保持するキーバリューストアです。
	closers []func() error
}

// Close は AppContext が保持するリソースを解放します。
func (a *AppContext) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package workflow

import (
	"context"
	"log/slog"
)

// Level は通知の重要度です。
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification はユーザーに表示する短いメッセージです。
type Notification struct {
	Level       Level  `json:"level"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Notifier は処理結果をユーザーに届けます。
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc は関数を Notifier として扱うためのアダプタです。
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// SlogNotifier は通知を構造化ログとして出力します。
type SlogNotifier struct {
	Logger *slog.Logger
}

func (s SlogNotifier) Notify(ctx context.Context, n Notification) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == LevelError {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, n.Title, "description", n.Description)
}

// MultiNotifier は全ての Notifier に同じ通知を送ります。
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

func info(title, desc string) Notification {
	return Notification{Level: LevelInfo, Title: title, Description: desc}
}

func failure(title, desc string) Notification {
	return Notification{Level: LevelError, Title: title, Description: desc}
}

// Package server はコントローラの操作を HTTP API と WebSocket 通知として公開します。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

// NewRouter は API のルーティングを設定した http.Handler を返します。
func NewRouter(h *Handler, hub *Hub) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/presentations", h.CreatePresentation).Methods(http.MethodPost)
	api.HandleFunc("/presentations/current", h.GetCurrent).Methods(http.MethodGet)
	api.HandleFunc("/presentations/current/slides/{slideID}", h.RenameSlide).Methods(http.MethodPatch)
	api.HandleFunc("/presentations/current/save", h.SaveCurrent).Methods(http.MethodPost)
	api.HandleFunc("/presentations/current/pdf", h.ExportPDF).Methods(http.MethodGet)
	api.HandleFunc("/saved", h.ListSaved).Methods(http.MethodGet)
	api.HandleFunc("/saved/{id}", h.DeleteSaved).Methods(http.MethodDelete)

	r.HandleFunc("/ws", hub.ServeWs)
	r.Use(loggingMiddleware)
	return r
}

// Run は addr で待ち受け、ctx が終了したらグレースフルに停止します。
func Run(ctx context.Context, addr string, h *Handler, hub *Hub) error {
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗しました: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).Round(time.Millisecond))
	})
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shouni/go-slide-kit/pkg/domain"
	"github.com/shouni/go-slide-kit/pkg/preview"
	"github.com/shouni/go-slide-kit/pkg/workflow"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Controller は HTTP ハンドラが利用するコントローラの操作です。
type Controller interface {
	Generate(ctx context.Context, topic, style string) (*domain.Presentation, error)
	Current() (*domain.Presentation, error)
	RenameSlide(slideID, title string) (*domain.Presentation, error)
	Save(ctx context.Context) ([]domain.PresentationPreview, error)
	Saved() []domain.PresentationPreview
	DeleteSaved(ctx context.Context, id string) ([]domain.PresentationPreview, error)
	Export(ctx context.Context, w io.Writer) (string, error)
}

// Handler はプレゼンテーション API の HTTP ハンドラです。
type Handler struct {
	ctrl Controller
}

// NewHandler は Handler を返します。
func NewHandler(ctrl Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

type generateRequest struct {
	Topic string `json:"topic"`
	Style string `json:"style"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

type savedResponse struct {
	Presentations []domain.PresentationPreview `json:"presentations"`
	Error         string                       `json:"error,omitempty"`
}

// CreatePresentation は新しいプレゼンテーションを生成します。
// POST /api/presentations
func (h *Handler) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.ctrl.Generate(r.Context(), req.Topic, req.Style)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
			return
		}
		if errors.Is(err, workflow.ErrSuperseded) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "A newer generation request replaced this one."})
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to generate presentation. Please try again."})
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetCurrent は現在のプレゼンテーションを返します。
// GET /api/presentations/current
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	p, err := h.ctrl.Current()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RenameSlide はスライドの見出しを変更します。
// PATCH /api/presentations/current/slides/{slideID}
func (h *Handler) RenameSlide(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.ctrl.RenameSlide(mux.Vars(r)["slideID"], req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveCurrent は現在のプレゼンテーションを保存済み一覧に追加します。
// POST /api/presentations/current/save
func (h *Handler) SaveCurrent(w http.ResponseWriter, r *http.Request) {
	list, err := h.ctrl.Save(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, savedResponse{Presentations: list})
	case errors.Is(err, domain.ErrNoPresentation):
		writeError(w, err)
	case errors.Is(err, preview.ErrNotDurable):
		writeJSON(w, http.StatusInsufficientStorage, savedResponse{Presentations: list, Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, savedResponse{Presentations: list, Error: err.Error()})
	}
}

// ExportPDF は現在のプレゼンテーションを PDF としてダウンロードさせます。
// GET /api/presentations/current/pdf
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.ctrl.Export(r.Context(), &buf)
	if err != nil {
		if errors.Is(err, domain.ErrNoPresentation) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("Failed to write PDF response", "error", err)
	}
}

// ListSaved は保存済みプレビュー一覧を返します。
// GET /api/saved
func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, savedResponse{Presentations: h.ctrl.Saved()})
}

// DeleteSaved は保存済み一覧から削除します。存在しない id でも 204 を返します。
// DELETE /api/saved/{id}
func (h *Handler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	list, err := h.ctrl.DeleteSaved(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusInsufficientStorage, savedResponse{Presentations: list, Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoPresentation), errors.Is(err, domain.ErrSlideNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

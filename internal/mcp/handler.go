// Package mcp はコントローラの操作を MCP ツールとして公開します。
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shouni/go-slide-kit/internal/pipeline"
	"github.com/shouni/go-slide-kit/pkg/domain"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const Version = "0.1.0"

// Controller は MCP ツールが利用するコントローラの操作です。
type Controller interface {
	Generate(ctx context.Context, topic, style string) (*domain.Presentation, error)
	Save(ctx context.Context) ([]domain.PresentationPreview, error)
	Saved() []domain.PresentationPreview
	DeleteSaved(ctx context.Context, id string) ([]domain.PresentationPreview, error)
	Export(ctx context.Context, w io.Writer) (string, error)
}

type GenerateRequest struct {
	Topic string `json:"topic"` // Presentation topic (at least 3 characters)
	Style string `json:"style"` // business, educational or creative
	Save  bool   `json:"save"`  // Save a preview after generation
}

type DeleteRequest struct {
	ID string `json:"id"` // Saved presentation id
}

type ExportRequest struct {
	OutputDir string `json:"output_dir"` // Directory for the PDF file
}

type ListRequest struct{}

// SlideSummary はツール結果に含めるスライド情報です。画像データは含めません。
type SlideSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PresentationSummary はツール結果に含めるプレゼンテーション情報です。
type PresentationSummary struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Style     domain.Style   `json:"style"`
	CreatedAt time.Time      `json:"createdAt"`
	Slides    []SlideSummary `json:"slides"`
}

type GenerateResponse struct {
	Presentation PresentationSummary `json:"presentation"`
	Saved        bool                `json:"saved"`
	SaveError    string              `json:"saveError,omitempty"`
}

type ListResponse struct {
	Presentations []PresentationSummary `json:"presentations"`
}

type ExportResponse struct {
	Path string `json:"path"`
}

// NewServer は4つのツールを登録した MCP サーバーを返します。
func NewServer(ctrl Controller, defaultOutputDir string) *server.MCPServer {
	s := server.NewMCPServer(
		"Slide Kit MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	generateTool := mcp.NewTool("generate_presentation",
		mcp.WithDescription("Generate a six-slide presentation with AI images for a topic"),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("The presentation topic (at least 3 characters)"),
		),
		mcp.WithString("style",
			mcp.Required(),
			mcp.Description("The presentation style"),
			mcp.Enum("business", "educational", "creative"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Save a compressed preview after generation"),
		),
	)
	s.AddTool(generateTool, mcp.NewTypedToolHandler(getGenerateHandler(ctrl)))

	listTool := mcp.NewTool("list_saved_presentations",
		mcp.WithDescription("List saved presentations, most recent first"),
	)
	s.AddTool(listTool, mcp.NewTypedToolHandler(getListHandler(ctrl)))

	deleteTool := mcp.NewTool("delete_saved_presentation",
		mcp.WithDescription("Delete a saved presentation by id"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The saved presentation id"),
		),
	)
	s.AddTool(deleteTool, mcp.NewTypedToolHandler(getDeleteHandler(ctrl)))

	exportTool := mcp.NewTool("export_presentation",
		mcp.WithDescription("Export the current presentation as a landscape PDF file"),
		mcp.WithString("output_dir",
			mcp.Description("Directory to write the PDF into"),
		),
	)
	s.AddTool(exportTool, mcp.NewTypedToolHandler(getExportHandler(ctrl, defaultOutputDir)))

	return s
}

func getGenerateHandler(ctrl Controller) func(ctx context.Context, request mcp.CallToolRequest, args GenerateRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GenerateRequest) (*mcp.CallToolResult, error) {
		p, err := ctrl.Generate(ctx, args.Topic, args.Style)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return mcp.NewToolResultError(verr.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to generate presentation: %v", err)), nil
		}

		resp := GenerateResponse{Presentation: summarize(p)}
		if args.Save {
			if _, err := ctrl.Save(ctx); err != nil {
				resp.SaveError = err.Error()
			} else {
				resp.Saved = true
			}
		}
		return jsonResult(resp)
	}
}

func getListHandler(ctrl Controller) func(ctx context.Context, request mcp.CallToolRequest, args ListRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ListRequest) (*mcp.CallToolResult, error) {
		return jsonResult(ListResponse{Presentations: summarizePreviews(ctrl.Saved())})
	}
}

func getDeleteHandler(ctrl Controller) func(ctx context.Context, request mcp.CallToolRequest, args DeleteRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args DeleteRequest) (*mcp.CallToolResult, error) {
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		list, err := ctrl.DeleteSaved(ctx, args.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to delete presentation: %v", err)), nil
		}
		return jsonResult(ListResponse{Presentations: summarizePreviews(list)})
	}
}

func getExportHandler(ctrl Controller, defaultOutputDir string) func(ctx context.Context, request mcp.CallToolRequest, args ExportRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ExportRequest) (*mcp.CallToolResult, error) {
		dir := args.OutputDir
		if dir == "" {
			dir = defaultOutputDir
		}
		path, err := pipeline.ExportToFile(ctx, ctrl, dir)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to export presentation: %v", err)), nil
		}
		return jsonResult(ExportResponse{Path: path})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func summarize(p *domain.Presentation) PresentationSummary {
	slides := make([]SlideSummary, len(p.Slides))
	for i, s := range p.Slides {
		slides[i] = SlideSummary{ID: s.ID, Title: s.Title}
	}
	return PresentationSummary{ID: p.ID, Topic: p.Topic, Style: p.Style, CreatedAt: p.CreatedAt, Slides: slides}
}

func summarizePreviews(list []domain.PresentationPreview) []PresentationSummary {
	out := make([]PresentationSummary, len(list))
	for i, pv := range list {
		slides := make([]SlideSummary, len(pv.Slides))
		for j, s := range pv.Slides {
			slides[j] = SlideSummary{ID: s.ID, Title: s.Title}
		}
		out[i] = PresentationSummary{ID: pv.ID, Topic: pv.Topic, Style: pv.Style, CreatedAt: pv.CreatedAt, Slides: slides}
	}
	return out
}

// ServeStdio は標準入出力で MCP サーバーを実行します。
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

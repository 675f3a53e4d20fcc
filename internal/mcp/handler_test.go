package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/shouni/go-slide-kit/pkg/domain"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	current *domain.Presentation
	saved   []domain.PresentationPreview
	genErr  error
}

func (f *fakeController) Generate(_ context.Context, topic, style string) (*domain.Presentation, error) {
	req := domain.NormalizeRequest(topic, style)
	if err := domain.NewRequestValidator().Validate(req); err != nil {
		return nil, err
	}
	if f.genErr != nil {
		return nil, f.genErr
	}
	f.current = &domain.Presentation{ID: "pres_1", Topic: req.Topic, Style: req.Style}
	for _, role := range domain.Roles() {
		f.current.Slides = append(f.current.Slides, domain.Slide{ID: role.SlideID(), Title: role.DefaultTitle(), ImageURL: "data:image/png;base64,AAAA"})
	}
	return f.current, nil
}

func (f *fakeController) Save(context.Context) ([]domain.PresentationPreview, error) {
	f.saved = append([]domain.PresentationPreview{{ID: f.current.ID, Topic: f.current.Topic}}, f.saved...)
	return f.saved, nil
}

func (f *fakeController) Saved() []domain.PresentationPreview { return f.saved }

func (f *fakeController) DeleteSaved(_ context.Context, id string) ([]domain.PresentationPreview, error) {
	var kept []domain.PresentationPreview
	for _, pv := range f.saved {
		if pv.ID != id {
			kept = append(kept, pv)
		}
	}
	f.saved = kept
	return kept, nil
}

func (f *fakeController) Export(_ context.Context, w io.Writer) (string, error) {
	if f.current == nil {
		return "", domain.ErrNoPresentation
	}
	_, _ = io.WriteString(w, "%PDF-1.3")
	return "deck_presentation.pdf", nil
}

func callRequest(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, NewServer(&fakeController{}, t.TempDir()))
}

func TestGenerateHandler(t *testing.T) {
	ctx := context.Background()
	ctrl := &fakeController{}
	h := getGenerateHandler(ctrl)

	t.Run("検証エラーはツールエラー", func(t *testing.T) {
		args := GenerateRequest{Topic: "Hi", Style: "business"}
		res, err := h(ctx, callRequest("generate_presentation", args), args)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "Topic must be at least 3 characters.")
	})

	t.Run("生成と保存", func(t *testing.T) {
		args := GenerateRequest{Topic: "Quarterly Sales Report", Style: "business", Save: true}
		res, err := h(ctx, callRequest("generate_presentation", args), args)
		require.NoError(t, err)
		assert.False(t, res.IsError)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &resp))
		assert.True(t, resp.Saved)
		assert.Len(t, resp.Presentation.Slides, domain.SlideCount)
		assert.NotContains(t, resultText(t, res), "base64", "画像データは結果に含めないこと")
	})

	t.Run("生成失敗", func(t *testing.T) {
		ctrl.genErr = errors.New("model down")
		defer func() { ctrl.genErr = nil }()
		args := GenerateRequest{Topic: "Another one", Style: "creative"}
		res, err := h(ctx, callRequest("generate_presentation", args), args)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestListAndDeleteHandlers(t *testing.T) {
	ctx := context.Background()
	ctrl := &fakeController{saved: []domain.PresentationPreview{{ID: "pres_a"}, {ID: "pres_b"}}}

	res, err := getListHandler(ctrl)(ctx, callRequest("list_saved_presentations", ListRequest{}), ListRequest{})
	require.NoError(t, err)
	var list ListResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	assert.Len(t, list.Presentations, 2)

	del := getDeleteHandler(ctrl)
	res, err = del(ctx, callRequest("delete_saved_presentation", DeleteRequest{}), DeleteRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = del(ctx, callRequest("delete_saved_presentation", DeleteRequest{ID: "pres_a"}), DeleteRequest{ID: "pres_a"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	require.Len(t, list.Presentations, 1)
	assert.Equal(t, "pres_b", list.Presentations[0].ID)
}

func TestExportHandler(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ctrl := &fakeController{}
	h := getExportHandler(ctrl, dir)

	res, err := h(ctx, callRequest("export_presentation", ExportRequest{}), ExportRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError, "現在のプレゼンテーションが無ければエラー")

	_, err = ctrl.Generate(ctx, "deck", "business")
	require.NoError(t, err)
	res, err = h(ctx, callRequest("export_presentation", ExportRequest{}), ExportRequest{})
	require.NoError(t, err)
	var resp ExportResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &resp))
	data, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))
}

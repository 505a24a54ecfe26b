package mcp_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/repository"
	"github.com/codenest/promptcanvas/pkg/service/mcp"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/m-mizutani/gt"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	gt.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func setupSession(t *testing.T) (*mcpsdk.ClientSession, *repository.Repository) {
	t.Helper()
	ctx := context.Background()

	img := pngBytes(t, 4, 2)
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	t.Cleanup(imgSrv.Close)

	repo := repository.New(adapter.NewMemory())
	ctrl := generation.New(
		adapter.NewHTTPImageFetcher(),
		repo,
		&notify.Recorder{},
		generation.WithBuilder(generation.NewBuilder(generation.WithEndpoint(imgSrv.URL+"/prompt"))),
		generation.WithSessionStore(repo),
	)

	srv := mcp.New(ctrl, repo, mcp.WithVersion("test"))
	mcpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(mcpSrv.Close)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: mcpSrv.URL}, nil)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session, repo
}

func textOf(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	gt.V(t, res).NotNil()
	gt.True(t, len(res.Content) > 0)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	session, _ := setupSession(t)

	res, err := session.ListTools(context.Background(), nil)
	gt.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	gt.True(t, names[mcp.ToolGenerateImage])
	gt.True(t, names[mcp.ToolListHistory])
	gt.True(t, names[mcp.ToolSurprisePrompt])
}

func TestGenerateImageTool(t *testing.T) {
	ctx := context.Background()
	session, repo := setupSession(t)

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name: mcp.ToolGenerateImage,
		Arguments: map[string]any{
			"prompt":     "a lighthouse at dusk",
			"style":      "anime",
			"ratio":      "16:9",
			"seed":       "31",
			"with_image": true,
		},
	})
	gt.NoError(t, err)
	gt.False(t, res.IsError)

	text := textOf(t, res)
	gt.S(t, text).Contains("seed: 31")
	gt.S(t, text).Contains("prompt: a lighthouse at dusk, anime style")
	gt.S(t, text).Contains("width=1024&height=576")
	gt.S(t, text).Contains("size: 4x2")

	gt.A(t, res.Content).Length(2)
	imgContent, ok := res.Content[1].(*mcpsdk.ImageContent)
	gt.True(t, ok)
	gt.Equal(t, imgContent.MIMEType, "image/png")

	records := repo.Load(ctx)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].Seed, "31")

	history, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolListHistory,
		Arguments: map[string]any{},
	})
	gt.NoError(t, err)
	gt.S(t, textOf(t, history)).Contains("a lighthouse at dusk, anime style")
}

func TestGenerateImageToolEmptyPrompt(t *testing.T) {
	session, repo := setupSession(t)

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      mcp.ToolGenerateImage,
		Arguments: map[string]any{"prompt": "   "},
	})
	gt.NoError(t, err)
	gt.True(t, res.IsError)
	gt.Equal(t, textOf(t, res), "please enter a prompt!")
	gt.A(t, repo.Load(context.Background())).Length(0)
}

func TestListHistoryEmpty(t *testing.T) {
	session, _ := setupSession(t)

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      mcp.ToolListHistory,
		Arguments: map[string]any{},
	})
	gt.NoError(t, err)
	gt.Equal(t, strings.TrimSpace(textOf(t, res)), "No recent generations.")
}

func TestSurprisePromptTool(t *testing.T) {
	session, _ := setupSession(t)

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      mcp.ToolSurprisePrompt,
		Arguments: map[string]any{},
	})
	gt.NoError(t, err)
	gt.True(t, len(textOf(t, res)) > 0)
}

func TestStdioTransport(t *testing.T) {
	ctx := context.Background()

	img := pngBytes(t, 2, 2)
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	}))
	defer imgSrv.Close()

	cmd := exec.Command("go", "run", "./testdata/stdio/main.go")
	cmd.Env = append(os.Environ(), "TEST_IMAGE_ENDPOINT="+imgSrv.URL+"/prompt/")

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcpsdk.CommandTransport{Command: cmd}, nil)
	gt.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolGenerateImage,
		Arguments: map[string]any{"prompt": "stdio", "seed": "8"},
	})
	gt.NoError(t, err)
	gt.False(t, res.IsError)
	gt.S(t, textOf(t, res)).Contains("seed: 8")
}

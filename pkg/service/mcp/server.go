package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/repository"
	"github.com/codenest/promptcanvas/pkg/usecase/gallery"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolGenerateImage  = "generate_image"
	ToolListHistory    = "list_history"
	ToolSurprisePrompt = "surprise_prompt"
)

type generateImageParams struct {
	Prompt     string `json:"prompt" jsonschema:"Text description of the image to generate"`
	Style      string `json:"style,omitempty" jsonschema:"Style preset name (none, photo, anime, cinematic, pixel) or a literal suffix appended to the prompt"`
	Ratio      string `json:"ratio,omitempty" jsonschema:"Aspect ratio: 1:1, 16:9, 9:16, 3:2 or 2:3. Unknown values use 768x768"`
	Seed       string `json:"seed,omitempty" jsonschema:"Seed for reproducible output. Random when empty"`
	Model      string `json:"model,omitempty" jsonschema:"Model identifier passed to the endpoint"`
	Regenerate bool   `json:"regenerate,omitempty" jsonschema:"Reuse the seed of the last displayed image"`
	WithImage  bool   `json:"with_image,omitempty" jsonschema:"Attach the image bytes to the result"`
}

type listHistoryParams struct{}

type surprisePromptParams struct{}

// Server exposes generation as MCP tools
type Server struct {
	ctrl     *generation.Controller
	history  repository.HistoryStore
	renderer *gallery.Renderer
	styles   map[string]string
	version  string
}

type Option func(*Server)

// WithStyles adds style presets on top of model.DefaultStyles
func WithStyles(styles map[string]string) Option {
	return func(s *Server) {
		s.styles = styles
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

func New(ctrl *generation.Controller, history repository.HistoryStore, opts ...Option) *Server {
	s := &Server{
		ctrl:     ctrl,
		history:  history,
		renderer: gallery.New(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MCPServer builds the SDK server with all tools registered
func (s *Server) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "promptcanvas",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGenerateImage,
		Description: "Generate an image from a text prompt. The result is added to the recent generations list.",
	}, s.generateImage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListHistory,
		Description: "List the most recent generations, newest first",
	}, s.listHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolSurprisePrompt,
		Description: "Return a random example prompt",
	}, s.surprisePrompt)

	return server
}

// RunStdio serves over stdin/stdout until ctx is done or the client disconnects
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server stopped")
	}
	return nil
}

// Handler serves the streamable HTTP transport
func (s *Server) Handler() http.Handler {
	server := s.MCPServer()
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}

func (s *Server) generateImage(ctx context.Context, req *mcp.CallToolRequest, params *generateImageParams) (*mcp.CallToolResult, any, error) {
	genReq := model.GenerationRequest{
		Prompt: params.Prompt,
		Style:  model.ResolveStyle(s.styles, params.Style),
		Ratio:  model.Ratio(params.Ratio),
		Seed:   params.Seed,
		Model:  params.Model,
	}

	pending, err := s.ctrl.Generate(ctx, genReq, params.Regenerate)
	if err != nil {
		return toolError(err), nil, nil
	}

	result, err := pending.Wait(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}

	logging.From(ctx).Info("image generated via mcp", "seed", result.Record.Seed)

	content := []mcp.Content{
		&mcp.TextContent{Text: fmt.Sprintf("url: %s\nseed: %s\nprompt: %s\nsize: %dx%d",
			result.Record.URL, result.Record.Seed, result.Record.Prompt, result.Image.Width, result.Image.Height)},
	}
	if params.WithImage && len(result.Image.Data) > 0 {
		content = append(content, &mcp.ImageContent{
			Data:     result.Image.Data,
			MIMEType: result.Image.MimeType,
		})
	}

	return &mcp.CallToolResult{Content: content}, nil, nil
}

func (s *Server) listHistory(ctx context.Context, req *mcp.CallToolRequest, params *listHistoryParams) (*mcp.CallToolResult, any, error) {
	var b strings.Builder
	if err := s.renderer.Render(&b, s.history.Load(ctx)); err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, nil, nil
}

func (s *Server) surprisePrompt(ctx context.Context, req *mcp.CallToolRequest, params *surprisePromptParams) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: model.PickSurprise(nil)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	switch {
	case errors.Is(err, model.ErrEmptyPrompt):
		msg = "please enter a prompt!"
	case errors.Is(err, model.ErrBusy):
		msg = "a generation is being dispatched, try again"
	case errors.Is(err, model.ErrImageLoad):
		msg = "image failed to load!"
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

// Package mcptools exposes document snapshots as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/anxuanzi/domsnap-go/dom"
	"github.com/anxuanzi/domsnap-go/dom/htmldoc"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// PageCapturer loads a URL and snapshots the rendered page.
type PageCapturer interface {
	CapturePage(ctx context.Context, url string, opts ...dom.Option) (*dom.Snapshot, error)
}

// Options configures the registered tools.
type Options struct {
	// CaptureOptions are applied to every capture.
	CaptureOptions []dom.Option

	// Logger receives tool call diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

type handler struct {
	capturer PageCapturer
	opts     []dom.Option
	logger   *zap.Logger
}

// Register adds capture_html, and capture_page when capturer is non-nil,
// to srv.
func Register(srv *mcp.Server, capturer PageCapturer, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		capturer: capturer,
		opts:     opts.CaptureOptions,
		logger:   logger.Named("mcp"),
	}

	srv.AddTool(&mcp.Tool{
		Name:        "capture_html",
		Description: "Snapshot an HTML document into element and text descriptors with identifiers, xpaths and CSS selectors.",
		InputSchema: inputSchema(map[string]any{
			"html":   map[string]any{"type": "string", "description": "HTML source"},
			"format": formatProperty,
		}, []string{"html"}),
	}, h.captureHTML)

	if capturer != nil {
		srv.AddTool(&mcp.Tool{
			Name:        "capture_page",
			Description: "Load a URL in the browser and snapshot the rendered page.",
			InputSchema: inputSchema(map[string]any{
				"url":    map[string]any{"type": "string", "description": "Page URL"},
				"format": formatProperty,
			}, []string{"url"}),
		}, h.capturePage)
	}
}

var formatProperty = map[string]any{
	"type":        "string",
	"enum":        []string{FormatJSON, FormatText},
	"description": "json for the descriptor map, text for an indented listing",
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type captureHTMLReq struct {
	HTML   string `json:"html"`
	Format string `json:"format"`
}

type capturePageReq struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (h *handler) captureHTML(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var r captureHTMLReq
	if err := decodeArgs(req, &r); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
	}
	if err := checkFormat(r.Format); err != nil {
		return toolError(err), nil
	}

	doc, err := htmldoc.ParseString(r.HTML)
	if err != nil {
		return toolError(err), nil
	}
	snap, err := dom.Capture(doc.Root(), h.captureOptions()...)
	if err != nil {
		return toolError(err), nil
	}

	h.logger.Debug("captured html",
		zap.Int("bytes", len(r.HTML)),
		zap.Int("nodes", snap.Len()),
		zap.Int("droppedRules", doc.DroppedRules()))
	return result(snap, r.Format)
}

func (h *handler) capturePage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var r capturePageReq
	if err := decodeArgs(req, &r); err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
	}
	if strings.TrimSpace(r.URL) == "" {
		return toolError(errors.New("url is required")), nil
	}
	if err := checkFormat(r.Format); err != nil {
		return toolError(err), nil
	}

	snap, err := h.capturer.CapturePage(ctx, r.URL, h.captureOptions()...)
	if err != nil {
		h.logger.Warn("page capture failed", zap.String("url", r.URL), zap.Error(err))
		return toolError(err), nil
	}

	h.logger.Debug("captured page", zap.String("url", r.URL), zap.Int("nodes", snap.Len()))
	return result(snap, r.Format)
}

func (h *handler) captureOptions() []dom.Option {
	return append([]dom.Option{dom.WithLogger(h.logger)}, h.opts...)
}

func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

func checkFormat(format string) error {
	switch format {
	case "", FormatJSON, FormatText:
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func result(snap *dom.Snapshot, format string) (*mcp.CallToolResult, error) {
	var text string
	if format == FormatText {
		text = dom.Render(snap).Text
	} else {
		data, err := json.Marshal(snap)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		text = string(data)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

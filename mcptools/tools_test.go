package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anxuanzi/domsnap-go/dom"
	"github.com/anxuanzi/domsnap-go/dom/htmldoc"
)

const scenario = `<body><p>Hello</p><button onclick="x()">Go</button></body>`

var testImpl = &mcp.Implementation{Name: "domsnap-test", Version: "0.1.0"}

// pageStub serves fixed HTML for every URL.
type pageStub struct {
	html string
	err  error
	urls []string
}

func (p *pageStub) CapturePage(_ context.Context, url string, opts ...dom.Option) (*dom.Snapshot, error) {
	p.urls = append(p.urls, url)
	if p.err != nil {
		return nil, p.err
	}
	doc, err := htmldoc.ParseString(p.html)
	if err != nil {
		return nil, err
	}
	return dom.Capture(doc.Root(), opts...)
}

func session(t *testing.T, capturer PageCapturer, opts Options) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testImpl, nil)
	Register(srv, capturer, opts)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text
}

func toolNames(t *testing.T, cs *mcp.ClientSession) []string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestRegister_Tools(t *testing.T) {
	assert.ElementsMatch(t, []string{"capture_html"}, toolNames(t, session(t, nil, Options{})))
	assert.ElementsMatch(t, []string{"capture_html", "capture_page"},
		toolNames(t, session(t, &pageStub{}, Options{})))
}

func TestCaptureHTML_JSON(t *testing.T) {
	cs := session(t, nil, Options{})

	res := call(t, cs, "capture_html", map[string]any{"html": scenario})
	require.False(t, res.IsError, text(t, res))

	var snap dom.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &snap))
	require.NotNil(t, snap.Root)
	assert.Equal(t, 5, snap.Len())
	assert.Equal(t, "body", snap.Map[*snap.Root].TagName)
}

func TestCaptureHTML_Text(t *testing.T) {
	cs := session(t, nil, Options{})

	res := call(t, cs, "capture_html", map[string]any{"html": scenario, "format": FormatText})
	require.False(t, res.IsError, text(t, res))

	out := text(t, res)
	assert.Contains(t, out, "p 'Hello'")
	assert.Contains(t, out, "button 'Go'")
}

func TestCaptureHTML_CaptureOptions(t *testing.T) {
	cs := session(t, nil, Options{CaptureOptions: []dom.Option{dom.WithBounds(false)}})

	res := call(t, cs, "capture_html", map[string]any{"html": scenario})
	require.False(t, res.IsError, text(t, res))

	var snap dom.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &snap))
	for _, d := range snap.Map {
		assert.Nil(t, d.Bounds)
	}
}

func TestCaptureHTML_BadFormat(t *testing.T) {
	cs := session(t, nil, Options{})

	res := call(t, cs, "capture_html", map[string]any{"html": scenario, "format": "xml"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "xml")
}

func TestCapturePage(t *testing.T) {
	stub := &pageStub{html: scenario}
	cs := session(t, stub, Options{})

	res := call(t, cs, "capture_page", map[string]any{"url": "https://example.com"})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, []string{"https://example.com"}, stub.urls)

	var snap dom.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &snap))
	assert.Equal(t, 5, snap.Len())
}

func TestCapturePage_Errors(t *testing.T) {
	stub := &pageStub{err: errors.New("navigation failed")}
	cs := session(t, stub, Options{})

	res := call(t, cs, "capture_page", map[string]any{"url": "https://example.com"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "navigation failed")

	res = call(t, cs, "capture_page", map[string]any{"url": "  "})
	assert.True(t, res.IsError)
	assert.Len(t, stub.urls, 1)
}

func TestCaptureHTML_UnreadableStylesheet(t *testing.T) {
	cs := session(t, nil, Options{})

	res := call(t, cs, "capture_html", map[string]any{
		"html": `<style>.a { &:hover { color: red } }</style><body><p>still here</p></body>`,
	})
	require.False(t, res.IsError, text(t, res))

	var snap dom.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &snap))
	var texts []string
	snap.Walk(func(d *dom.Descriptor, _ int) bool {
		if d.Type == dom.TextNode {
			texts = append(texts, d.Text)
		}
		return true
	})
	assert.Equal(t, []string{"still here"}, texts)
}

package cmd

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anxuanzi/domsnap-go/browser"
	"github.com/anxuanzi/domsnap-go/dom"
	"github.com/anxuanzi/domsnap-go/mcptools"
)

var serveNoBrowser bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve capture tools over MCP on stdio",
	Long: `Serve capture tools to an MCP client over stdin/stdout.

capture_html snapshots HTML passed by the client. capture_page renders a
URL in Chromium; the browser starts on the first call.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcp.NewServer(&mcp.Implementation{Name: "domsnap", Version: "0.1.0"}, nil)

		var capturer mcptools.PageCapturer
		if !serveNoBrowser {
			b, err := newBrowser()
			if err != nil {
				return err
			}
			defer func() {
				if err := b.Close(); err != nil {
					log.Warn("browser close failed", zap.Error(err))
				}
			}()
			capturer = startingCapturer{b}
		}

		mcptools.Register(srv, capturer, mcptools.Options{
			CaptureOptions: captureOptions(),
			Logger:         log,
		})

		log.Info("serving mcp on stdio", zap.Bool("browser", capturer != nil))
		return srv.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

// startingCapturer starts the browser before each capture. Start is a
// no-op once the page is open. The browser outlives the request that
// started it.
type startingCapturer struct {
	b *browser.Browser
}

func (c startingCapturer) CapturePage(ctx context.Context, url string, opts ...dom.Option) (*dom.Snapshot, error) {
	if err := c.b.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	return c.b.CapturePage(ctx, url, opts...)
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "only serve capture_html")
	rootCmd.AddCommand(serveCmd)
}

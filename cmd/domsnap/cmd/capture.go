package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anxuanzi/domsnap-go/screenshot"
)

var (
	captureFormat     string
	captureOut        string
	captureScreenshot string
	captureAllBoxes   bool
)

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Render a page in Chromium and snapshot it",
	Long: `Render a page in Chromium and snapshot it.

Examples:
  domsnap capture https://example.com
  domsnap capture https://example.com --format text
  domsnap capture https://example.com --out snap.json --screenshot page.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(captureFormat); err != nil {
			return err
		}

		ctx := cmd.Context()
		b, err := newBrowser()
		if err != nil {
			return err
		}
		defer func() {
			if err := b.Close(); err != nil {
				log.Warn("browser close failed", zap.Error(err))
			}
		}()

		if err := b.Start(ctx); err != nil {
			return err
		}

		snap, err := b.CapturePage(ctx, args[0])
		if err != nil {
			return err
		}
		log.Info("captured page", zap.String("url", args[0]), zap.Int("nodes", snap.Len()))

		if captureScreenshot != "" {
			annotation := screenshot.DefaultAnnotationConfig()
			annotation.InteractiveOnly = !captureAllBoxes
			img, err := b.ScreenshotWithAnnotations(ctx, snap, annotation)
			if err != nil {
				return err
			}
			if err := os.WriteFile(captureScreenshot, img, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", captureScreenshot, err)
			}
		}

		return output(cmd, captureOut, snap, captureFormat)
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureFormat, "format", "f", formatJSON, "output format: json or text")
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "", "write the snapshot to a file instead of stdout")
	captureCmd.Flags().StringVar(&captureScreenshot, "screenshot", "", "write an annotated PNG screenshot to this file")
	captureCmd.Flags().BoolVar(&captureAllBoxes, "all-boxes", false, "annotate every visible element, not only interactive ones")
	rootCmd.AddCommand(captureCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anxuanzi/domsnap-go/dom"
	"github.com/anxuanzi/domsnap-go/dom/htmldoc"
)

var (
	htmlFormat string
	htmlOut    string
)

var htmlCmd = &cobra.Command{
	Use:   "html <file|->",
	Short: "Snapshot a static HTML document",
	Long: `Snapshot a static HTML document without a browser. Styles come from
<style> elements and style attributes; boxes are not laid out.

Examples:
  domsnap html page.html
  curl -s https://example.com | domsnap html - --format text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(htmlFormat); err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		doc, err := htmldoc.Parse(r)
		if err != nil {
			return err
		}
		snap, err := dom.Capture(doc.Root(), captureOptions()...)
		if err != nil {
			return err
		}
		if dropped := doc.DroppedRules(); dropped > 0 {
			log.Warn("ignored unreadable stylesheet rules", zap.String("source", args[0]), zap.Int("rules", dropped))
		}
		log.Debug("captured html", zap.String("source", args[0]), zap.Int("nodes", snap.Len()))

		return output(cmd, htmlOut, snap, htmlFormat)
	},
}

func init() {
	htmlCmd.Flags().StringVarP(&htmlFormat, "format", "f", formatJSON, "output format: json or text")
	htmlCmd.Flags().StringVarP(&htmlOut, "out", "o", "", "write the snapshot to a file instead of stdout")
	rootCmd.AddCommand(htmlCmd)
}

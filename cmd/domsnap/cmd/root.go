package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anxuanzi/domsnap-go/browser"
	"github.com/anxuanzi/domsnap-go/dom"
	"github.com/anxuanzi/domsnap-go/internal/config"
	"github.com/anxuanzi/domsnap-go/internal/logger"
)

const (
	formatJSON = "json"
	formatText = "text"
)

var (
	configPath string
	cfg        *config.Cfg
	log        *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "domsnap",
	Short: "Snapshot rendered documents for automation agents",
	Long: `domsnap walks a rendered document once and emits a flat map of element
and text descriptors. Each descriptor carries a visibility and
interactivity verdict, an xpath and a CSS selector, so agents can refer
to page content by identifier.

Pages are rendered in Chromium. Static HTML can be captured without a
browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.Logger.Env, cfg.Logger.Level)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// captureOptions maps the loaded config onto capture options.
func captureOptions() []dom.Option {
	return []dom.Option{
		dom.WithLogger(log),
		dom.WithBoundaryStop(cfg.Capture.StopAtBoundary),
	}
}

// newBrowser builds a browser session from the loaded config.
func newBrowser() (*browser.Browser, error) {
	stealth := browser.DefaultStealthConfig()
	stealth.EnableStealth = cfg.Browser.Stealth
	if cfg.Browser.UserAgent != "" {
		stealth.UserAgent = cfg.Browser.UserAgent
	}

	return browser.New(browser.Config{
		Headless:       cfg.Browser.Headless,
		ControlURL:     cfg.Browser.RemoteURL,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		Timeout:        cfg.Browser.Timeout,
		Stealth:        stealth,

		ListenerIntrospection: cfg.Browser.Listeners,

		CaptureOptions: captureOptions(),
		Logger:         log,
	})
}

func checkFormat(format string) error {
	if format != formatJSON && format != formatText {
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatText)
	}
	return nil
}

// writeSnapshot writes snap to w as indented JSON or as a text listing.
func writeSnapshot(w io.Writer, snap *dom.Snapshot, format string) error {
	if format == formatText {
		_, err := io.WriteString(w, dom.Render(snap).Text)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// output writes snap to path, or to the command's stdout when path is empty.
func output(cmd *cobra.Command, path string, snap *dom.Snapshot, format string) error {
	if path == "" {
		return writeSnapshot(cmd.OutOrStdout(), snap, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeSnapshot(f, snap, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

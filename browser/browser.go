// Package browser drives a Chromium page through rod and exposes the
// rendered document to the snapshot engine.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/anxuanzi/domsnap-go/dom"
	"github.com/anxuanzi/domsnap-go/screenshot"
)

// ErrNotStarted is returned when the browser is used before Start.
var ErrNotStarted = errors.New("browser: not started")

// Config holds browser configuration.
type Config struct {
	// Headless runs Chromium without a window.
	Headless bool

	// ControlURL connects to an already running browser instead of
	// launching one (e.g., "ws://127.0.0.1:9222/devtools/browser/...").
	ControlURL string

	// ViewportWidth and ViewportHeight set the page viewport in CSS pixels.
	ViewportWidth  int
	ViewportHeight int

	// Timeout bounds each navigation and capture.
	Timeout time.Duration

	// Stealth configures anti-detection measures.
	Stealth StealthConfig

	// AllowCrossOriginFrames launches Chromium with site isolation and web
	// security disabled so cross-origin frame documents can be captured.
	// Ignored with ControlURL.
	AllowCrossOriginFrames bool

	// ListenerIntrospection reads registered event listeners of every
	// element through the debugger, so elements with pointer or key
	// listeners are classified interactive. It costs one debugger call per
	// element. Without it only legacy on<event> properties are seen.
	ListenerIntrospection bool

	// CaptureOptions are applied to every Capture before per-call options.
	CaptureOptions []dom.Option

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		Timeout:        30 * time.Second,
		Stealth:        DefaultStealthConfig(),
	}
}

// Browser is a single-page Chromium session.
type Browser struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// New creates a Browser. Call Start before use.
func New(cfg Config) (*Browser, error) {
	if cfg.ViewportWidth < 0 || cfg.ViewportHeight < 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if cfg.ViewportWidth == 0 {
		cfg.ViewportWidth = 1280
	}
	if cfg.ViewportHeight == 0 {
		cfg.ViewportHeight = 720
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Browser{
		cfg:    cfg,
		logger: logger.Named("browser"),
	}, nil
}

// Start launches or connects to Chromium and opens the page.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page != nil {
		return nil
	}

	controlURL := b.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().
			Headless(b.cfg.Headless).
			NoSandbox(true)
		if b.cfg.Stealth.EnableStealth {
			l = applyLaunchFlags(l, stealthLaunchFlags)
		}
		if b.cfg.AllowCrossOriginFrames {
			l = applyLaunchFlags(l, crossOriginFrameFlags)
		}

		u, err := l.Context(ctx).Launch()
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		b.launcher = l
		controlURL = u
		b.logger.Info("launched local browser", zap.String("url", controlURL))
	} else {
		b.logger.Info("connecting to remote browser", zap.String("url", controlURL))
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		b.cleanupLocked()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	b.browser = rb

	page, err := openPage(rb, b.cfg.Stealth)
	if err != nil {
		b.cleanupLocked()
		return fmt.Errorf("failed to create page: %w", err)
	}
	b.page = page

	if err := applyStealthOverrides(page, b.cfg.Stealth, b.logger); err != nil {
		b.cleanupLocked()
		return err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.cleanupLocked()
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	return nil
}

// Navigate loads a URL and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.navigateLocked(ctx, url)
}

func (b *Browser) navigateLocked(ctx context.Context, url string) error {
	if b.page == nil {
		return ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		b.logger.Warn("wait load failed", zap.String("url", url), zap.Error(err))
	}
	return nil
}

// URL returns the URL of the current page.
func (b *Browser) URL() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return "", ErrNotStarted
	}
	info, err := b.page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, nil
}

// Document dumps the rendered page and returns it as a read-only document.
func (b *Browser) Document(ctx context.Context) (dom.Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.documentLocked(ctx)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *Browser) documentLocked(ctx context.Context) (*remoteNode, error) {
	if b.page == nil {
		return nil, ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	page := b.page.Context(ctx)
	res, err := page.Eval(dumpJS, b.cfg.ListenerIntrospection)
	if err != nil {
		return nil, fmt.Errorf("failed to dump document: %w", err)
	}
	doc, err := decodeDocument([]byte(res.Value.Str()))
	if err != nil {
		return nil, err
	}

	if b.cfg.ListenerIntrospection {
		byIndex, err := readListeners(page, b.logger)
		if err != nil {
			b.logger.Warn("listener introspection failed", zap.Error(err))
		} else {
			attachListeners(doc, byIndex)
		}
	}
	return doc, nil
}

// Capture snapshots the current page.
func (b *Browser) Capture(ctx context.Context, opts ...dom.Option) (*dom.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.captureLocked(ctx, opts...)
}

func (b *Browser) captureLocked(ctx context.Context, opts ...dom.Option) (*dom.Snapshot, error) {
	doc, err := b.documentLocked(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]dom.Option, 0, len(b.cfg.CaptureOptions)+len(opts)+1)
	all = append(all, dom.WithLogger(b.logger))
	all = append(all, b.cfg.CaptureOptions...)
	all = append(all, opts...)
	return dom.Capture(doc, all...)
}

// CapturePage navigates to a URL and snapshots it.
func (b *Browser) CapturePage(ctx context.Context, url string, opts ...dom.Option) (*dom.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.navigateLocked(ctx, url); err != nil {
		return nil, err
	}
	return b.captureLocked(ctx, opts...)
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return nil, ErrNotStarted
	}

	data, err := b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

// ScreenshotWithAnnotations captures the viewport and draws the snapshot's
// element boxes and identifiers over it.
func (b *Browser) ScreenshotWithAnnotations(ctx context.Context, snap *dom.Snapshot, cfg screenshot.AnnotationConfig) ([]byte, error) {
	data, err := b.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	return screenshot.Annotate(data, snap, cfg)
}

// Close closes the page and the browser, and stops a launched process.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cleanupLocked()
}

func (b *Browser) cleanupLocked() error {
	var errs []error
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
		b.page = nil
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return errors.Join(errs...)
}

package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// StealthConfig configures anti-detection measures.
type StealthConfig struct {
	// EnableStealth opens pages through go-rod/stealth and applies the
	// overrides below.
	EnableStealth bool

	// UserAgent overrides the browser user agent.
	UserAgent string

	// Locale sets the Accept-Language sent with the user agent (e.g., "en-US").
	Locale string

	// Timezone sets the browser timezone (e.g., "America/New_York").
	Timezone string
}

// DefaultStealthConfig returns sensible stealth defaults.
func DefaultStealthConfig() StealthConfig {
	return StealthConfig{
		EnableStealth: true,
		UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Locale:        "en-US",
		Timezone:      "America/Los_Angeles",
	}
}

// openPage creates a page, through the stealth plugin when enabled.
func openPage(b *rod.Browser, cfg StealthConfig) (*rod.Page, error) {
	if cfg.EnableStealth {
		return stealth.Page(b)
	}
	return b.Page(proto.TargetCreateTarget{})
}

// applyStealthOverrides sets the user agent and timezone of a page.
func applyStealthOverrides(page *rod.Page, cfg StealthConfig, logger *zap.Logger) error {
	if !cfg.EnableStealth {
		return nil
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.Locale,
		}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if cfg.Timezone != "" {
		err := proto.EmulationSetTimezoneOverride{
			TimezoneID: cfg.Timezone,
		}.Call(page)
		if err != nil {
			// Not critical; the page still renders
			logger.Warn("timezone override failed",
				zap.String("timezone", cfg.Timezone),
				zap.Error(err))
		}
	}

	return nil
}

// Launch flags applied when stealth mode is enabled.
var stealthLaunchFlags = []string{
	"disable-blink-features=AutomationControlled", // Most important: hides webdriver
	"disable-infobars",                            // Remove "Chrome is being controlled" bar
	"disable-dev-shm-usage",                       // Prevent shared memory issues
	"disable-ipc-flooding-protection",
	"disable-renderer-backgrounding",
	"disable-backgrounding-occluded-windows",
	"disable-background-timer-throttling",
	"ignore-certificate-errors",
}

// Launch flags that let in-page script read cross-origin frame documents.
var crossOriginFrameFlags = []string{
	"disable-web-security",
	"disable-features=IsolateOrigins,site-per-process",
	"disable-site-isolation-trials",
}

// GetStealthLaunchFlags returns Chrome flags for stealth mode.
func GetStealthLaunchFlags() []string {
	return stealthLaunchFlags
}

// applyLaunchFlags sets "name" or "name=v1,v2" style flags on a launcher.
func applyLaunchFlags(l *launcher.Launcher, list []string) *launcher.Launcher {
	for _, f := range list {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			l = l.Set(flags.Flag(name))
			continue
		}
		l = l.Set(flags.Flag(name), strings.Split(value, ",")...)
	}
	return l
}

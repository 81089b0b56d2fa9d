// Package config loads domsnap settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Cfg struct {
	Logger  Logger  `yaml:"logger"`
	Browser Browser `yaml:"browser"`
	Capture Capture `yaml:"capture"`
}

type Logger struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type Browser struct {
	Headless       bool          `yaml:"headless"`
	RemoteURL      string        `yaml:"remote_url"`
	Stealth        bool          `yaml:"stealth"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	Listeners      bool          `yaml:"listeners"`
}

type Capture struct {
	StopAtBoundary bool `yaml:"stop_at_boundary"`
}

// Default returns the settings used when neither file nor environment
// sets a value.
func Default() *Cfg {
	return &Cfg{
		Logger: Logger{
			Env:   "dev",
			Level: "info",
		},
		Browser: Browser{
			Headless:       true,
			Stealth:        true,
			ViewportWidth:  1280,
			ViewportHeight: 720,
			Timeout:        30 * time.Second,
		},
		Capture: Capture{
			StopAtBoundary: true,
		},
	}
}

// Load applies, in order, defaults, the YAML file at path (skipped when
// path is empty), a .env file if present, and the process environment.
func Load(path string) (*Cfg, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	cfg.Logger.Env = env("ENV", cfg.Logger.Env)
	cfg.Logger.Level = env("LOG_LEVEL", cfg.Logger.Level)

	cfg.Browser.Headless = envBool("BROWSER_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.RemoteURL = env("BROWSER_REMOTE_URL", cfg.Browser.RemoteURL)
	cfg.Browser.Stealth = envBool("BROWSER_STEALTH", cfg.Browser.Stealth)
	cfg.Browser.ViewportWidth = envInt("BROWSER_VIEWPORT_WIDTH", cfg.Browser.ViewportWidth)
	cfg.Browser.ViewportHeight = envInt("BROWSER_VIEWPORT_HEIGHT", cfg.Browser.ViewportHeight)
	cfg.Browser.UserAgent = env("BROWSER_USER_AGENT", cfg.Browser.UserAgent)
	cfg.Browser.Timeout = envDuration("BROWSER_TIMEOUT", cfg.Browser.Timeout)
	cfg.Browser.Listeners = envBool("BROWSER_LISTENERS", cfg.Browser.Listeners)

	cfg.Capture.StopAtBoundary = envBool("CAPTURE_STOP_AT_BOUNDARY", cfg.Capture.StopAtBoundary)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Cfg) validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("invalid browser timeout %s", c.Browser.Timeout)
	}
	return nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultUserAgent is the desktop Chrome user agent presented by every
// proxied browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Stream    StreamConfig
	Login     LoginConfig
	Audit     AuditConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"5001"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// BrowserConfig controls how proxy browsers are launched.
type BrowserConfig struct {
	ExecPath       string `envconfig:"CHROME_PATH"`
	Headless       bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	ViewportWidth  int    `envconfig:"VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight int    `envconfig:"VIEWPORT_HEIGHT" default:"720"`
	UserAgent      string `envconfig:"BROWSER_USER_AGENT"`
}

// StreamConfig holds navigation, capture and relay timings.
type StreamConfig struct {
	CaptureInterval   time.Duration `envconfig:"CAPTURE_INTERVAL" default:"1s"`
	CaptureQuality    int           `envconfig:"CAPTURE_QUALITY" default:"80"`
	NavigationTimeout time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"30s"`
	SettleDelay       time.Duration `envconfig:"SETTLE_DELAY" default:"2s"`
	InteractionDelay  time.Duration `envconfig:"INTERACTION_DELAY" default:"100ms"`
}

// LoginConfig holds login strategy chain tuning.
type LoginConfig struct {
	ProbeTimeout  time.Duration `envconfig:"LOGIN_PROBE_TIMEOUT" default:"2s"`
	SubmitWait    time.Duration `envconfig:"LOGIN_SUBMIT_WAIT" default:"5s"`
	SelectorsFile string        `envconfig:"LOGIN_SELECTORS_FILE"`
}

// AuditConfig selects the access-event sinks. Empty values disable a sink.
type AuditConfig struct {
	DBPath   string        `envconfig:"AUDIT_DB_PATH"`
	Endpoint string        `envconfig:"AUDIT_ENDPOINT"`
	Timeout  time.Duration `envconfig:"AUDIT_TIMEOUT" default:"5s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5001",
			Host:            "0.0.0.0",
			ShutdownTimeout: 15 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 720,
		},
		Stream: StreamConfig{
			CaptureInterval:   time.Second,
			CaptureQuality:    80,
			NavigationTimeout: 30 * time.Second,
			SettleDelay:       2 * time.Second,
			InteractionDelay:  100 * time.Millisecond,
		},
		Login: LoginConfig{
			ProbeTimeout: 2 * time.Second,
			SubmitWait:   5 * time.Second,
		},
		Audit: AuditConfig{
			Timeout: 5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Stream.CaptureInterval <= 0 {
		return fmt.Errorf("CAPTURE_INTERVAL must be positive, got %s", c.Stream.CaptureInterval)
	}
	if c.Stream.CaptureQuality < 1 || c.Stream.CaptureQuality > 100 {
		return fmt.Errorf("CAPTURE_QUALITY must be within 1..100, got %d", c.Stream.CaptureQuality)
	}
	if c.Stream.NavigationTimeout <= 0 {
		return fmt.Errorf("NAVIGATION_TIMEOUT must be positive, got %s", c.Stream.NavigationTimeout)
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	return nil
}

// UserAgentOrDefault returns the configured user agent or the static default.
func (b BrowserConfig) UserAgentOrDefault() string {
	if b.UserAgent == "" {
		return DefaultUserAgent
	}
	return b.UserAgent
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

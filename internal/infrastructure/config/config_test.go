package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:5001", cfg.Server.Addr())

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Equal(t, 720, cfg.Browser.ViewportHeight)
	assert.Equal(t, DefaultUserAgent, cfg.Browser.UserAgentOrDefault())

	assert.Equal(t, time.Second, cfg.Stream.CaptureInterval)
	assert.Equal(t, 80, cfg.Stream.CaptureQuality)
	assert.Equal(t, 30*time.Second, cfg.Stream.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Stream.SettleDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Stream.InteractionDelay)

	assert.Equal(t, 2*time.Second, cfg.Login.ProbeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Login.SubmitWait)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                 "9000",
		"HOST":                 "127.0.0.1",
		"CHROME_PATH":          "/usr/bin/chromium",
		"BROWSER_HEADLESS":     "false",
		"VIEWPORT_WIDTH":       "1920",
		"VIEWPORT_HEIGHT":      "1080",
		"BROWSER_USER_AGENT":   "agent/1.0",
		"CAPTURE_INTERVAL":     "500ms",
		"CAPTURE_QUALITY":      "60",
		"NAVIGATION_TIMEOUT":   "10s",
		"LOGIN_SELECTORS_FILE": "/etc/accessproxy/selectors.yaml",
		"AUDIT_DB_PATH":        "/var/lib/accessproxy/audit.db",
		"AUDIT_ENDPOINT":       "http://logs.internal/api/logs",
		"LOG_LEVEL":            "debug",
		"LOG_DEV":              "true",
		"RATE_LIMIT_ENABLED":   "false",
		"CORS_ORIGINS":         "http://localhost:3000,https://console.example.com",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1080, cfg.Browser.ViewportHeight)
	assert.Equal(t, "agent/1.0", cfg.Browser.UserAgentOrDefault())
	assert.Equal(t, 500*time.Millisecond, cfg.Stream.CaptureInterval)
	assert.Equal(t, 60, cfg.Stream.CaptureQuality)
	assert.Equal(t, 10*time.Second, cfg.Stream.NavigationTimeout)
	assert.Equal(t, "/etc/accessproxy/selectors.yaml", cfg.Login.SelectorsFile)
	assert.Equal(t, "/var/lib/accessproxy/audit.db", cfg.Audit.DBPath)
	assert.Equal(t, "http://logs.internal/api/logs", cfg.Audit.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"http://localhost:3000", "https://console.example.com"}, cfg.CORS.Origins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero capture interval", mutate: func(c *Config) { c.Stream.CaptureInterval = 0 }, wantErr: true},
		{name: "quality too high", mutate: func(c *Config) { c.Stream.CaptureQuality = 101 }, wantErr: true},
		{name: "quality too low", mutate: func(c *Config) { c.Stream.CaptureQuality = 0 }, wantErr: true},
		{name: "negative navigation timeout", mutate: func(c *Config) { c.Stream.NavigationTimeout = -time.Second }, wantErr: true},
		{name: "empty viewport", mutate: func(c *Config) { c.Browser.ViewportWidth = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CAPTURE_QUALITY", "0")

	_, err := Load()
	require.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 80, cfg.Stream.CaptureQuality)
}

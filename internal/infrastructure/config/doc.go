// Package config provides environment-driven configuration for the access proxy.
//
// Configuration is loaded from environment variables with defaults that
// mirror the behaviour operators expect out of the box. CLI flags in
// cmd/server can override a few of them for local work.
//
// Configuration Sections:
//   - Server: HTTP listen address and shutdown grace period
//   - Browser: Chrome binary, headless mode, viewport, user agent
//   - Stream: navigation timeout, settle delay, capture cadence and quality
//   - Login: probe timeout, post-submit wait, selector override file
//   - Audit: SQLite path and forwarding endpoint for access events
//   - Logging, RateLimit, CORS
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Listening on %s\n", cfg.Server.Addr())
package config

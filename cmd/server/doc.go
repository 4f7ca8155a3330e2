// Package main is the entry point for the access proxy server.
//
// The server runs one headless browser per operator, logs it into the
// requested third-party platform and streams it to the operator's viewer
// over a WebSocket.
//
// Architecture:
//
//	Viewer (browser) ⇄ /ws ⇄ stream engine → Chrome (CDP)
//	                  /api → sessions, health, access logs
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 5001
//
//	# Development mode (colored logs, debug level, visible browser)
//	./server -dev -headless=false
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

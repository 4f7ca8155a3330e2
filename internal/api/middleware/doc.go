// Package middleware provides the HTTP middleware shared by the REST and
// WebSocket endpoints: CORS for the viewer origin and per-IP rate
// limiting.
package middleware

// Package server is the composition root. It builds the browser launcher,
// login chain, audit sinks, session engine and WebSocket hub from
// configuration, mounts the HTTP routes and owns graceful shutdown.
package server

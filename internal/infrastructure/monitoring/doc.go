/*
Package monitoring provides Prometheus metrics for the access proxy.

# Overview

Metrics cover the HTTP surface, the browser session lifecycle, the login
strategy chain, frame capture, relayed interactions, bridged page events,
audit writes and WebSocket traffic.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

Tests pass a fresh prometheus.NewRegistry() so collectors never collide.
*/
package monitoring

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
)

// HTTPForwarder posts access events to a remote collector. A circuit
// breaker stops it from hammering a collector that is down.
type HTTPForwarder struct {
	client   *resty.Client
	endpoint string
	breaker  *resilience.Breaker
}

// NewHTTPForwarder creates a forwarder posting JSON to endpoint.
func NewHTTPForwarder(endpoint string, timeout time.Duration) *HTTPForwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "AccessProxy-Audit/1.0")

	return &HTTPForwarder{
		client:   client,
		endpoint: endpoint,
		breaker: resilience.New("audit-forwarder", resilience.Settings{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		}),
	}
}

// Breaker exposes the forwarder's circuit breaker.
func (f *HTTPForwarder) Breaker() *resilience.Breaker {
	return f.breaker
}

// Record posts ev. Non-2xx responses are errors.
func (f *HTTPForwarder) Record(ctx context.Context, ev Event) error {
	ev = ev.Normalize()
	return f.breaker.Execute(ctx, func(ctx context.Context) error {
		resp, err := f.client.R().
			SetContext(ctx).
			SetBody(ev).
			Post(f.endpoint)
		if err != nil {
			return fmt.Errorf("forward access log: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("forward access log: collector returned %d", resp.StatusCode())
		}
		return nil
	})
}

package login

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// ErrStrategiesExhausted is reported when no strategy found a login form.
// It is informational: the session continues in manual-login mode.
var ErrStrategiesExhausted = errors.New("no login strategy succeeded")

// Credentials are injected into the platform's login form.
type Credentials struct {
	Username string
	Password string
}

// Outcome is the result of one strategy attempt.
type Outcome int

const (
	// NotFound means the strategy could not locate the form.
	NotFound Outcome = iota
	// Succeeded means the fields were filled and a submit path ran.
	Succeeded
	// Navigated means the page moved on while the strategy ran.
	Navigated
	// Failed means the strategy hit an unexpected error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not_found"
	case Succeeded:
		return "succeeded"
	case Navigated:
		return "navigated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what a strategy reports back to the chain.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Done reports whether the chain should stop.
func (r Result) Done() bool {
	return r.Outcome == Succeeded || r.Outcome == Navigated
}

func found(reason string) Result    { return Result{Outcome: Succeeded, Reason: reason} }
func notFound(reason string) Result { return Result{Outcome: NotFound, Reason: reason} }

// classify turns an error raised mid-strategy into a Result.
func classify(err error) Result {
	switch {
	case browser.IsNavigationError(err):
		return Result{Outcome: Navigated, Reason: err.Error()}
	default:
		return Result{Outcome: Failed, Reason: err.Error()}
	}
}

// Strategy is one way of locating, filling and submitting a login form.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, page browser.Page, creds Credentials) Result
}

// firstVisible returns the first visible element matched by any selector,
// probing selectors in order. Only navigation and cancellation abort the
// probe; other query errors skip to the next selector.
func firstVisible(ctx context.Context, scope browser.Scope, selectors []string, timeout time.Duration) (browser.Element, string, error) {
	for _, sel := range selectors {
		els, err := scope.Query(ctx, sel, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			if browser.IsNavigationError(err) || errors.Is(err, browser.ErrPageClosed) {
				return nil, "", err
			}
			continue
		}
		if len(els) > 0 {
			return els[0], sel, nil
		}
	}
	return nil, "", nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

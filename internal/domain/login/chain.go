package login

import (
	"context"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"go.uber.org/zap"
)

// Recorder receives per-strategy outcomes.
type Recorder interface {
	RecordLoginAttempt(strategy, outcome string)
	ObserveLoginDuration(d time.Duration)
}

// Report summarises a chain run.
type Report struct {
	Strategy string
	Result   Result
	Elapsed  time.Duration
}

// LoggedIn is the best-effort login signal: a strategy filled and
// submitted the form, or the page navigated during the attempt. It does
// not prove the platform accepted the credentials.
func (r Report) LoggedIn() bool {
	return r.Result.Done()
}

// Chain runs strategies in order until one reports Succeeded or Navigated.
type Chain struct {
	strategies []Strategy
	settle     time.Duration
	logger     *zap.Logger
	recorder   Recorder
}

// NewChain creates a chain over strategies, tried in slice order.
func NewChain(strategies []Strategy, settle time.Duration, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{strategies: strategies, settle: settle, logger: logger}
}

// NewDefaultChain builds the direct, enhanced, frames and script chain.
func NewDefaultChain(sel Selectors, opts Options, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	fill := NewFiller(opts, logger)
	return NewChain([]Strategy{
		NewDirect(sel.Direct, opts, fill),
		NewEnhanced(sel.Enhanced, sel.SubmitTexts, opts, fill, logger),
		NewFrames(sel.Frames, opts),
		NewScript(sel.Script, opts),
	}, opts.Settle, logger)
}

// WithRecorder reports outcomes to r.
func (c *Chain) WithRecorder(r Recorder) *Chain {
	c.recorder = r
	return c
}

// Strategies returns strategy names in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Attempt runs the chain against page. Before every strategy after the
// first it checks whether the page URL changed since the chain started.
func (c *Chain) Attempt(ctx context.Context, page browser.Page, creds Credentials) Report {
	start := time.Now()
	report := c.run(ctx, page, creds)
	report.Elapsed = time.Since(start)

	if c.recorder != nil {
		c.recorder.ObserveLoginDuration(report.Elapsed)
	}
	c.logger.Info("Login chain finished",
		zap.String("strategy", report.Strategy),
		zap.String("outcome", report.Result.Outcome.String()),
		zap.Duration("elapsed", report.Elapsed))
	return report
}

func (c *Chain) run(ctx context.Context, page browser.Page, creds Credentials) Report {
	if err := sleep(ctx, c.settle); err != nil {
		return Report{Result: Result{Outcome: Failed, Reason: err.Error()}}
	}

	startURL, err := page.URL(ctx)
	if err != nil {
		return Report{Result: classify(err)}
	}

	for i, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Report{Strategy: s.Name(), Result: Result{Outcome: Failed, Reason: err.Error()}}
		}

		if i > 0 {
			if moved, res := c.navigatedAway(ctx, page, startURL); moved {
				return Report{Strategy: c.strategies[i-1].Name(), Result: res}
			}
		}

		res := s.Attempt(ctx, page, creds)
		c.logger.Debug("Login strategy attempted",
			zap.String("strategy", s.Name()),
			zap.String("outcome", res.Outcome.String()),
			zap.String("reason", res.Reason))
		if c.recorder != nil {
			c.recorder.RecordLoginAttempt(s.Name(), res.Outcome.String())
		}

		if res.Done() {
			return Report{Strategy: s.Name(), Result: res}
		}
	}

	return Report{Result: Result{Outcome: NotFound, Reason: ErrStrategiesExhausted.Error()}}
}

func (c *Chain) navigatedAway(ctx context.Context, page browser.Page, startURL string) (bool, Result) {
	current, err := page.URL(ctx)
	if err != nil {
		if res := classify(err); res.Outcome == Navigated {
			return true, res
		}
		return false, Result{}
	}
	if current != startURL {
		return true, Result{Outcome: Navigated, Reason: "url changed to " + current}
	}
	return false, Result{}
}

package login

import (
	"context"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"go.uber.org/zap"
)

// Filler types values into form fields and verifies them.
type Filler struct {
	opts   Options
	logger *zap.Logger
}

// NewFiller creates a Filler.
func NewFiller(opts Options, logger *zap.Logger) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filler{opts: opts, logger: logger}
}

// Fill enters value into el. It never fails: problems are logged and the
// caller carries on with whatever the field ended up holding.
func (f *Filler) Fill(ctx context.Context, el browser.Element, value string) {
	if el == nil || value == "" {
		return
	}

	if err := f.typeFresh(ctx, el, value); err != nil {
		f.logger.Debug("Field fill failed", zap.Error(err))
		return
	}

	got, err := el.Value(ctx)
	if err != nil {
		f.logger.Debug("Field read-back failed", zap.Error(err))
		return
	}
	if got == value {
		return
	}

	f.logger.Debug("Field value mismatch, retyping", zap.Int("want_len", len(value)), zap.Int("got_len", len(got)))
	if err := f.retype(ctx, el, value); err != nil {
		f.logger.Debug("Field retype failed", zap.Error(err))
	}
}

func (f *Filler) typeFresh(ctx context.Context, el browser.Element, value string) error {
	if err := el.Focus(ctx); err != nil {
		return err
	}
	if err := el.SelectAll(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, f.opts.Pause); err != nil {
		return err
	}
	return el.Type(ctx, value, f.opts.KeyDelay)
}

func (f *Filler) retype(ctx context.Context, el browser.Element, value string) error {
	if err := el.Focus(ctx); err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, f.opts.Pause); err != nil {
		return err
	}
	return el.Type(ctx, value, f.opts.RetryKeyDelay)
}

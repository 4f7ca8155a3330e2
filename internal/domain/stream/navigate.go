package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"go.uber.org/zap"
)

// NormalizeURL prefixes https:// when raw carries no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

// Navigator loads a platform into a session page.
type Navigator struct {
	emitter Emitter
	timeout time.Duration
	settle  time.Duration
	logger  *zap.Logger
}

// NewNavigator creates a Navigator. timeout bounds the load and settle
// is waited after it.
func NewNavigator(emitter Emitter, timeout, settle time.Duration, logger *zap.Logger) *Navigator {
	return &Navigator{emitter: emitter, timeout: timeout, settle: settle, logger: logger}
}

// Navigate emits the navigating status, loads the platform and waits for
// it to settle. Any load failure is reported as ErrNavigationTimeout.
func (n *Navigator) Navigate(ctx context.Context, userID string, page browser.Page, platform session.Platform) error {
	n.emitter.Emit(userID, EventLoginStatus, LoginStatus{
		Status:  StatusNavigating,
		Message: fmt.Sprintf(msgNavigating, platform.Name),
	})

	url := NormalizeURL(platform.URL)
	if url == "" {
		return fmt.Errorf("%w: platform %q has no url", ErrNavigationTimeout, platform.Name)
	}

	nctx, cancel := context.WithTimeout(ctx, n.timeout)
	err := page.Navigate(nctx, url)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err)
	}

	n.logger.Debug("Platform loaded", zap.String("user_id", userID), zap.String("url", url))
	return sleep(ctx, n.settle)
}

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

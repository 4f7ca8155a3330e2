package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Options controls how a proxy browser is started.
type Options struct {
	ExecPath  string
	Headless  bool
	Width     int
	Height    int
	UserAgent string
}

// Launcher starts one isolated Chrome process per session.
type Launcher struct {
	opts   Options
	logger *zap.Logger
}

// NewLauncher creates a launcher.
func NewLauncher(opts Options, logger *zap.Logger) *Launcher {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{opts: opts, logger: logger}
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.WindowSize(l.opts.Width, l.opts.Height),
	)
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	if !l.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	return opts
}

// Launch starts a browser with a single tab and attaches onEvent to it
// before any navigation happens. The browser outlives ctx; ctx only
// bounds start-up. The returned Page must be closed by the caller.
func (l *Launcher) Launch(ctx context.Context, onEvent EventHandler) (Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	tab, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(l.logger.Sugar().Debugf),
		chromedp.WithErrorf(l.logger.Sugar().Debugf),
	)

	p := newCDPPage(tab, tabCancel, allocCancel, l.opts, l.logger)
	attachBridge(tab, onEvent, l.logger)

	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tab,
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(int64(l.opts.Width), int64(l.opts.Height)),
	)
	stop()
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	l.logger.Debug("Browser launched",
		zap.String("target", string(chromedp.FromContext(tab).Target.TargetID)))
	return p, nil
}

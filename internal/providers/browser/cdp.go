package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const queryPollInterval = 100 * time.Millisecond

// cdpPage is a Page backed by a chromedp tab context.
type cdpPage struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	logger      *zap.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func newCDPPage(tab context.Context, tabCancel, allocCancel context.CancelFunc, opts Options, logger *zap.Logger) *cdpPage {
	return &cdpPage{
		tab:         tab,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		opts:        opts,
		logger:      logger,
	}
}

// derive returns a context that runs against the tab but is also
// cancelled when ctx is. Cancelling it never closes the tab.
func (p *cdpPage) derive(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		rctx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		rctx, cancel = context.WithTimeout(p.tab, timeout)
	} else {
		rctx, cancel = context.WithCancel(p.tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return rctx, func() {
		stop()
		cancel()
	}
}

func (p *cdpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if !p.Valid() {
		return ErrPageClosed
	}
	rctx, cancel := p.derive(ctx, 0)
	defer cancel()
	return chromedp.Run(rctx, actions...)
}

// Navigate loads url and waits until the network has gone almost idle for
// the new document. ctx bounds the whole wait.
func (p *cdpPage) Navigate(ctx context.Context, url string) error {
	if !p.Valid() {
		return ErrPageClosed
	}
	rctx, cancel := p.derive(ctx, 0)
	defer cancel()

	events := make(chan *page.EventLifecycleEvent, 256)
	lctx, stopListening := context.WithCancel(rctx)
	defer stopListening()
	chromedp.ListenTarget(lctx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok {
			select {
			case events <- e:
			default:
			}
		}
	})

	if err := chromedp.Run(rctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	var main *cdp.Frame
	if err := chromedp.Run(rctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		main = tree.Frame
		return nil
	})); err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	return waitNetworkIdle(rctx, events, main.ID, main.LoaderID)
}

// waitNetworkIdle consumes lifecycle events until the main frame's current
// document reports networkAlmostIdle.
func waitNetworkIdle(ctx context.Context, events <-chan *page.EventLifecycleEvent, frame cdp.FrameID, loader cdp.LoaderID) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for network idle: %v", ErrNavigation, ctx.Err())
		case ev := <-events:
			if ev.FrameID != frame || ev.LoaderID != loader {
				continue
			}
			if ev.Name == "networkAlmostIdle" || ev.Name == "networkIdle" {
				return nil
			}
		}
	}
}

func (p *cdpPage) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, chromedp.Location(&u))
	return u, err
}

func (p *cdpPage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *cdpPage) Query(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	return p.query(ctx, selector, timeout, nil)
}

func (p *cdpPage) query(ctx context.Context, selector string, timeout time.Duration, root *cdp.Node) ([]Element, error) {
	if !p.Valid() {
		return nil, ErrPageClosed
	}
	qctx, cancel := p.derive(ctx, timeout)
	defer cancel()

	opts := []chromedp.QueryOption{chromedp.ByQueryAll}
	if root != nil {
		opts = append(opts, chromedp.FromNode(root))
	}
	once := timeout <= 0
	if once {
		opts = append(opts, chromedp.AtLeast(0))
	}

	for {
		var nodes []*cdp.Node
		err := chromedp.Run(qctx, chromedp.Nodes(selector, &nodes, opts...))
		if err != nil {
			if qctx.Err() != nil && ctx.Err() == nil && p.Valid() {
				return nil, nil
			}
			return nil, err
		}

		visible, err := p.visible(qctx, nodes)
		if err != nil {
			return nil, err
		}
		if len(visible) > 0 || once {
			return visible, nil
		}

		select {
		case <-qctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, nil
		case <-time.After(queryPollInterval):
		}
	}
}

// visible keeps nodes that have a layout box.
func (p *cdpPage) visible(ctx context.Context, nodes []*cdp.Node) ([]Element, error) {
	var out []Element
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, n := range nodes {
			if _, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx); err != nil {
				if IsNavigationError(err) {
					return err
				}
				continue
			}
			out = append(out, &cdpElement{page: p, node: n})
		}
		return nil
	}))
	if err != nil && ctx.Err() != nil {
		return out, nil
	}
	return out, err
}

func (p *cdpPage) Frames(ctx context.Context) ([]Scope, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes("iframe", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	frames := make([]Scope, 0, len(nodes))
	for _, n := range nodes {
		frames = append(frames, &cdpFrame{page: p, node: n})
	}
	return frames, nil
}

func (p *cdpPage) Evaluate(ctx context.Context, script string, res any) error {
	return p.run(ctx, chromedp.Evaluate(script, res))
}

func (p *cdpPage) Screenshot(ctx context.Context, quality int) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(quality)).
			Do(ctx)
		return err
	}))
	return buf, err
}

// Click presses and releases the left button at viewport coordinates.
func (p *cdpPage) Click(ctx context.Context, x, y float64) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

func (p *cdpPage) Type(ctx context.Context, text string, delay time.Duration) error {
	return p.run(ctx, typeKeys(text, delay))
}

func (p *cdpPage) Press(ctx context.Context, key string) error {
	return p.run(ctx, pressKey(key))
}

// Scroll dispatches a wheel event at the centre of the viewport.
func (p *cdpPage) Scroll(ctx context.Context, deltaY float64) error {
	x, y := float64(p.opts.Width)/2, float64(p.opts.Height)/2
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(0).WithDeltaY(deltaY).Do(ctx)
	}))
}

func (p *cdpPage) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cookies = make([]Cookie, 0, len(raw))
		for _, c := range raw {
			cookies = append(cookies, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	return cookies, err
}

func (p *cdpPage) Valid() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed && p.tab.Err() == nil
}

// Close shuts the browser down gracefully, then kills the process.
func (p *cdpPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		if cerr := chromedp.Cancel(p.tab); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
		p.tabCancel()
		p.allocCancel()
	})
	return err
}

// typeKeys sends each rune as its own key event with delay between them.
func typeKeys(text string, delay time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		first := true
		for _, r := range text {
			if !first && delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
			first = false
			if err := chromedp.KeyEvent(string(r)).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// cdpFrame scopes queries to an iframe's content document.
type cdpFrame struct {
	page *cdpPage
	node *cdp.Node
}

func (f *cdpFrame) Query(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	return f.page.query(ctx, selector, timeout, f.node)
}

// cdpElement is a DOM node located by a query.
type cdpElement struct {
	page *cdpPage
	node *cdp.Node
}

func (e *cdpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *cdpElement) Focus(ctx context.Context) error {
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.Focus().WithNodeID(e.node.NodeID).Do(ctx)
	}))
}

func (e *cdpElement) SelectAll(ctx context.Context) error {
	return e.page.run(ctx, chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)))
}

func (e *cdpElement) Type(ctx context.Context, text string, delay time.Duration) error {
	if err := e.Focus(ctx); err != nil {
		return err
	}
	return e.page.run(ctx, typeKeys(text, delay))
}

func (e *cdpElement) Value(ctx context.Context) (string, error) {
	var v string
	err := e.page.run(ctx, chromedp.Value(e.ids(), &v, chromedp.ByNodeID))
	return v, err
}

func (e *cdpElement) Clear(ctx context.Context) error {
	return e.callOn(ctx, `function() {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`)
}

func (e *cdpElement) Click(ctx context.Context) error {
	return e.page.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *cdpElement) Press(ctx context.Context, key string) error {
	if err := e.Focus(ctx); err != nil {
		return err
	}
	return e.page.run(ctx, pressKey(key))
}

// callOn runs a function declaration with the node bound to this.
func (e *cdpElement) callOn(ctx context.Context, fn string) error {
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var resolved json.RawMessage
		params := map[string]any{"nodeId": e.node.NodeID}
		if err := chromedp.FromContext(ctx).Target.Execute(ctx, "DOM.resolveNode", params, &resolved); err != nil {
			return fmt.Errorf("DOM.resolveNode: %w", err)
		}
		var resp struct {
			Object struct {
				ObjectID string `json:"objectId"`
			} `json:"object"`
		}
		if err := json.Unmarshal(resolved, &resp); err != nil {
			return fmt.Errorf("unmarshal resolveNode: %w", err)
		}
		if resp.Object.ObjectID == "" {
			return fmt.Errorf("no objectId for node %d", e.node.NodeID)
		}
		call := map[string]any{
			"objectId":            resp.Object.ObjectID,
			"functionDeclaration": fn,
			"arguments":           []any{},
		}
		return chromedp.FromContext(ctx).Target.Execute(ctx, "Runtime.callFunctionOn", call, nil)
	}))
}

// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// FakeJPEG is returned by Page.Screenshot.
var FakeJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 'f', 'a', 'k', 'e'}

// Scope is a document holding elements keyed by selector.
type Scope struct {
	mu       sync.Mutex
	elements map[string][]*Element
	queries  []string
}

// NewScope creates an empty document.
func NewScope() *Scope {
	return &Scope{elements: make(map[string][]*Element)}
}

// Add registers a visible element under selector and returns it.
func (s *Scope) Add(selector string) *Element {
	el := NewElement(selector)
	s.mu.Lock()
	s.elements[selector] = append(s.elements[selector], el)
	s.mu.Unlock()
	return el
}

// Query returns elements registered under selector immediately.
func (s *Scope) Query(ctx context.Context, selector string, _ time.Duration) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, selector)

	var out []browser.Element
	for _, el := range s.elements[selector] {
		out = append(out, el)
	}
	return out, nil
}

// Queries returns every selector queried so far.
func (s *Scope) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Element records everything done to it.
type Element struct {
	Selector string

	mu      sync.Mutex
	value   string
	log     []string
	clicks  int
	presses []string

	// Mangle, when set, rewrites typed text before it lands in the value.
	Mangle func(string) string
	// ClickErr is returned from Click.
	ClickErr error
	// OnClick runs after a successful click.
	OnClick func()
}

// NewElement creates an element.
func NewElement(selector string) *Element {
	return &Element{Selector: selector}
}

func (e *Element) record(op string) {
	e.log = append(e.log, op)
}

func (e *Element) Focus(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("focus")
	return nil
}

// SelectAll marks the value as replaced by the next Type.
func (e *Element) SelectAll(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("select-all")
	e.value = ""
	return nil
}

func (e *Element) Type(_ context.Context, text string, _ time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("type:" + text)
	if e.Mangle != nil {
		text = e.Mangle(text)
	}
	e.value += text
	return nil
}

func (e *Element) Value(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, nil
}

func (e *Element) Clear(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("clear")
	e.value = ""
	return nil
}

func (e *Element) Click(context.Context) error {
	e.mu.Lock()
	if e.ClickErr != nil {
		e.mu.Unlock()
		return e.ClickErr
	}
	e.record("click")
	e.clicks++
	hook := e.OnClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) Press(_ context.Context, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("press:" + key)
	e.presses = append(e.presses, key)
	return nil
}

// SetValue overwrites the current value.
func (e *Element) SetValue(v string) {
	e.mu.Lock()
	e.value = v
	e.mu.Unlock()
}

// Log returns the operations applied, in order.
func (e *Element) Log() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

// Clicks returns the click count.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Presses returns the keys pressed on the element.
func (e *Element) Presses() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.presses...)
}

// Page is a scriptable browser.Page.
type Page struct {
	*Scope

	mu          sync.Mutex
	url         string
	html        string
	frames      []*Scope
	actions     []string
	screenshots int
	closed      bool
	closeCalls  int

	// NavigateFunc overrides Navigate when set.
	NavigateFunc func(ctx context.Context, url string) error
	// EvaluateFunc handles Evaluate; nil results in a no-op.
	EvaluateFunc func(script string, res any) error
	// ScreenshotErr fails every capture when set.
	ScreenshotErr error
	// InputErr fails Click, Type, Press and Scroll when set.
	InputErr error
	// CloseDelay slows Close to expose teardown ordering.
	CloseDelay time.Duration
	// OnClose runs at the end of Close.
	OnClose func()
}

// NewPage creates an open page at about:blank.
func NewPage() *Page {
	return &Page{Scope: NewScope(), url: "about:blank"}
}

// AddFrame adds an iframe document.
func (p *Page) AddFrame() *Scope {
	f := NewScope()
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
	return f
}

// SetURL changes the current URL, as a navigation would.
func (p *Page) SetURL(u string) {
	p.mu.Lock()
	p.url = u
	p.mu.Unlock()
}

// SetHTML sets the document returned by HTML.
func (p *Page) SetHTML(h string) {
	p.mu.Lock()
	p.html = h
	p.mu.Unlock()
}

func (p *Page) checkOpen() error {
	if p.closed {
		return browser.ErrPageClosed
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	fn := p.NavigateFunc
	if err := p.checkOpen(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.actions = append(p.actions, "navigate:"+url)
	p.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, url); err != nil {
			return err
		}
	}
	p.SetURL(url)
	return nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpen(); err != nil {
		return "", err
	}
	return p.url, nil
}

func (p *Page) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, p.checkOpen()
}

func (p *Page) Frames(context.Context) ([]browser.Scope, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]browser.Scope, 0, len(p.frames))
	for _, f := range p.frames {
		out = append(out, f)
	}
	return out, p.checkOpen()
}

func (p *Page) Evaluate(_ context.Context, script string, res any) error {
	p.mu.Lock()
	fn := p.EvaluateFunc
	err := p.checkOpen()
	if err == nil {
		p.actions = append(p.actions, "evaluate")
	}
	p.mu.Unlock()
	if err != nil || fn == nil {
		return err
	}
	return fn(script, res)
}

func (p *Page) Screenshot(ctx context.Context, _ int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	p.screenshots++
	return FakeJPEG, nil
}

func (p *Page) input(action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpen(); err != nil {
		return err
	}
	if p.InputErr != nil {
		return p.InputErr
	}
	p.actions = append(p.actions, action)
	return nil
}

func (p *Page) Click(_ context.Context, x, y float64) error {
	return p.input(fmt.Sprintf("click:%g,%g", x, y))
}

func (p *Page) Type(_ context.Context, text string, _ time.Duration) error {
	return p.input("type:" + text)
}

func (p *Page) Press(_ context.Context, key string) error {
	return p.input("press:" + key)
}

func (p *Page) Scroll(_ context.Context, deltaY float64) error {
	return p.input(fmt.Sprintf("scroll:%g", deltaY))
}

func (p *Page) Cookies(context.Context) ([]browser.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	return []browser.Cookie{{Name: "sid", Value: "fake", Domain: "example.com", Path: "/"}}, nil
}

func (p *Page) Valid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *Page) Close() error {
	if p.CloseDelay > 0 {
		time.Sleep(p.CloseDelay)
	}
	p.mu.Lock()
	p.closeCalls++
	p.closed = true
	hook := p.OnClose
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// Actions returns navigations, evaluations and input applied to the page.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

// Screenshots returns the number of successful captures.
func (p *Page) Screenshots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screenshots
}

// Closed reports whether Close has been called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// CloseCalls returns how often Close ran.
func (p *Page) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

// Launcher hands out fake pages and records launch order.
type Launcher struct {
	mu       sync.Mutex
	pages    []*Page
	handlers []browser.EventHandler

	// NewPage builds each page; defaults to NewPage.
	NewPage func() *Page
	// Err fails every launch when set.
	Err error
	// OnLaunch runs before a page is returned.
	OnLaunch func(n int)
}

// Launch implements the session launcher contract.
func (l *Launcher) Launch(ctx context.Context, onEvent browser.EventHandler) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	if l.Err != nil {
		err := l.Err
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", browser.ErrLaunchFailure, err)
	}
	build := l.NewPage
	if build == nil {
		build = NewPage
	}
	p := build()
	l.pages = append(l.pages, p)
	l.handlers = append(l.handlers, onEvent)
	n := len(l.pages)
	hook := l.OnLaunch
	l.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return p, nil
}

// Pages returns launched pages in order.
func (l *Launcher) Pages() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.pages...)
}

// Last returns the most recently launched page.
func (l *Launcher) Last() *Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pages) == 0 {
		return nil
	}
	return l.pages[len(l.pages)-1]
}

// Fire delivers ev to the handler of the n-th launched page (1-based).
func (l *Launcher) Fire(n int, ev browser.PageEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 1 || n > len(l.handlers) {
		return errors.New("no such launch")
	}
	if h := l.handlers[n-1]; h != nil {
		h(ev)
	}
	return nil
}

package browser

import (
	"context"
	"time"
)

// Scope is a document that can be searched for elements: the top-level
// page or the content document of one of its frames.
type Scope interface {
	// Query waits up to timeout for visible elements matching a CSS
	// selector. No match is not an error: it returns an empty slice.
	Query(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)
}

// Page is a live browser tab owned by exactly one session.
type Page interface {
	Scope

	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Frames(ctx context.Context) ([]Scope, error)
	Evaluate(ctx context.Context, script string, res any) error

	// Screenshot captures the viewport as JPEG.
	Screenshot(ctx context.Context, quality int) ([]byte, error)

	Click(ctx context.Context, x, y float64) error
	Type(ctx context.Context, text string, delay time.Duration) error
	Press(ctx context.Context, key string) error
	Scroll(ctx context.Context, deltaY float64) error

	Cookies(ctx context.Context) ([]Cookie, error)

	// Valid reports whether the tab is still usable.
	Valid() bool
	// Close tears the browser down. Safe to call more than once.
	Close() error
}

// Element is a form control located on a Scope.
type Element interface {
	Focus(ctx context.Context) error
	SelectAll(ctx context.Context) error
	Type(ctx context.Context, text string, delay time.Duration) error
	Value(ctx context.Context) (string, error)
	// Clear empties the value and fires input and change events.
	Clear(ctx context.Context) error
	Click(ctx context.Context) error
	Press(ctx context.Context, key string) error
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
}

// EventKind classifies events raised by the page itself.
type EventKind string

const (
	EventPageError EventKind = "page-error"
	EventDialog    EventKind = "page-dialog"
	EventConsole   EventKind = "console"
)

// PageEvent is an uncaught exception, a dialog or console output.
type PageEvent struct {
	Kind       EventKind
	DialogType string
	Message    string
}

// EventHandler receives page events. It is called from the browser's
// event goroutine and must not block.
type EventHandler func(PageEvent)

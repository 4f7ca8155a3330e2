package browser

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrLaunchFailure = errors.New("browser launch failed")
	ErrPageClosed    = errors.New("page is closed")
	ErrNavigation    = errors.New("navigation failed")
)

// markers of a document replaced under an in-flight operation
var navigationMarkers = []string{
	"execution context was destroyed",
	"cannot find context with specified id",
	"inspected target navigated or closed",
	"node with given id does not belong to the document",
	"could not find node with given id",
	"no node with given id found",
	"frame was detached",
	"target closed",
}

// IsNavigationError reports whether err means the page navigated away
// while an operation was running against the old document.
func IsNavigationError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range navigationMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

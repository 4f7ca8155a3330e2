package stream

import (
	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// pageEvents forwards page errors and dialogs of userID's page to its
// watchers. Console output stays in the browser log.
func (e *Engine) pageEvents(userID string) browser.EventHandler {
	return func(ev browser.PageEvent) {
		switch ev.Kind {
		case browser.EventPageError:
			e.metrics.RecordPageEvent(string(ev.Kind))
			e.emitter.Emit(userID, EventPageError, PageError{Message: ev.Message})
		case browser.EventDialog:
			e.metrics.RecordPageEvent(string(ev.Kind))
			e.emitter.Emit(userID, EventPageDialog, PageDialog{Type: ev.DialogType, Message: ev.Message})
		}
	}
}

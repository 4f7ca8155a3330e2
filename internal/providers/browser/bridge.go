package browser

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// attachBridge forwards uncaught exceptions and dialogs from the tab to
// onEvent and accepts every dialog so the page never blocks on one.
// Console output is only logged.
func attachBridge(tab context.Context, onEvent EventHandler, logger *zap.Logger) {
	emit := func(ev PageEvent) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	chromedp.ListenTarget(tab, func(ev any) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			logger.Debug("Page console",
				zap.String("type", string(e.Type)),
				zap.String("message", consoleText(e.Args)))

		case *runtime.EventExceptionThrown:
			emit(PageEvent{Kind: EventPageError, Message: exceptionText(e.ExceptionDetails)})

		case *page.EventJavascriptDialogOpening:
			emit(PageEvent{Kind: EventDialog, DialogType: string(e.Type), Message: e.Message})
			// handlers run on the event loop; the accept must not
			go func() {
				if err := chromedp.Run(tab, page.HandleJavaScriptDialog(true)); err != nil {
					logger.Debug("Dialog accept failed", zap.Error(err))
				}
			}()
		}
	})
}

func exceptionText(d *runtime.ExceptionDetails) string {
	if d == nil {
		return "unknown error"
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a == nil:
		case a.Description != "":
			parts = append(parts, a.Description)
		case len(a.Value) > 0:
			parts = append(parts, strings.Trim(string(a.Value), `"`))
		}
	}
	return strings.Join(parts, " ")
}

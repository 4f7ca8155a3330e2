package login

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"go.uber.org/zap"
)

// Enhanced probes an extended selector set plus selectors derived from
// the page's own form markup.
type Enhanced struct {
	sel    FieldSelectors
	texts  []string
	opts   Options
	fill   *Filler
	logger *zap.Logger
}

// NewEnhanced creates the enhanced strategy. texts are lower-case button
// labels tried when no submit selector matches.
func NewEnhanced(sel FieldSelectors, texts []string, opts Options, fill *Filler, logger *zap.Logger) *Enhanced {
	return &Enhanced{sel: sel, texts: texts, opts: opts, fill: fill, logger: logger}
}

func (e *Enhanced) Name() string { return "enhanced" }

func (e *Enhanced) Attempt(ctx context.Context, page browser.Page, creds Credentials) Result {
	sel := e.withHints(ctx, page)

	user, _, err := firstVisible(ctx, page, sel.Username, e.opts.ProbeTimeout)
	if err != nil {
		return classify(err)
	}
	if user == nil {
		return notFound("username field missing")
	}
	pass, _, err := firstVisible(ctx, page, sel.Password, e.opts.ProbeTimeout)
	if err != nil {
		return classify(err)
	}
	if pass == nil {
		return notFound("password field missing")
	}

	e.fill.Fill(ctx, user, creds.Username)
	e.fill.Fill(ctx, pass, creds.Password)

	button, matched, err := firstVisible(ctx, page, sel.Submit, e.opts.SubmitProbeTimeout)
	if err != nil {
		return classify(err)
	}
	if button != nil {
		if err := button.Click(ctx); err != nil {
			return classify(err)
		}
		return found("submit " + matched)
	}

	var clicked bool
	if err := page.Evaluate(ctx, submitByTextScript(e.texts), &clicked); err != nil {
		return classify(err)
	}
	if clicked {
		return found("submit by label")
	}

	if err := pass.Press(ctx, "Enter"); err != nil {
		return classify(err)
	}
	return found("enter key")
}

// withHints puts selectors derived from the document ahead of the static
// lists. A document that cannot be read leaves the static lists alone.
func (e *Enhanced) withHints(ctx context.Context, page browser.Page) FieldSelectors {
	html, err := page.HTML(ctx)
	if err != nil {
		return e.sel
	}
	hints, err := AnalyzeForms(html)
	if err != nil || hints.Empty() {
		return e.sel
	}
	e.logger.Debug("Form analyser hints",
		zap.Strings("username", hints.Username),
		zap.Strings("password", hints.Password))
	return FieldSelectors{
		Username: merge(hints.Username, e.sel.Username),
		Password: merge(hints.Password, e.sel.Password),
		Submit:   merge(hints.Submit, e.sel.Submit),
	}
}

// submitByTextScript clicks the first button whose label contains one of
// texts and evaluates to whether it found one.
func submitByTextScript(texts []string) string {
	list, _ := json.Marshal(texts)
	return fmt.Sprintf(`(() => {
	const texts = %s;
	const buttons = Array.from(document.querySelectorAll('button, input[type="submit"]'));
	for (const b of buttons) {
		const label = (b.textContent || b.value || '').toLowerCase();
		if (texts.some(t => label.includes(t))) { b.click(); return true; }
	}
	return false;
})()`, list)
}

package login

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// Direct probes a short list of the most common field selectors.
type Direct struct {
	sel  FieldSelectors
	opts Options
	fill *Filler
}

// NewDirect creates the direct strategy.
func NewDirect(sel FieldSelectors, opts Options, fill *Filler) *Direct {
	return &Direct{sel: sel, opts: opts, fill: fill}
}

func (d *Direct) Name() string { return "direct" }

// Attempt reports Succeeded once both fields were located and a submit
// path ran, whether or not the platform accepted the credentials.
func (d *Direct) Attempt(ctx context.Context, page browser.Page, creds Credentials) Result {
	user, _, err := firstVisible(ctx, page, d.sel.Username, d.opts.ProbeTimeout)
	if err != nil {
		return classify(err)
	}
	pass, _, err := firstVisible(ctx, page, d.sel.Password, d.opts.ProbeTimeout)
	if err != nil {
		return classify(err)
	}
	if user == nil || pass == nil {
		return notFound("username or password field missing")
	}

	d.fill.Fill(ctx, user, creds.Username)
	d.fill.Fill(ctx, pass, creds.Password)

	var submitted bool
	if err := page.Evaluate(ctx, submitScript(d.sel.Submit, true), &submitted); err != nil {
		return classify(err)
	}
	if !submitted {
		if err := pass.Press(ctx, "Enter"); err != nil {
			return classify(err)
		}
	}

	if err := sleep(ctx, d.opts.SubmitWait); err != nil {
		return Result{Outcome: Failed, Reason: err.Error()}
	}
	return found("direct selectors")
}

// submitScript clicks the first rendered control matching selectors,
// optionally falling back to submitting the first form. It evaluates to
// true when something was submitted.
func submitScript(selectors []string, formFallback bool) string {
	list, _ := json.Marshal(selectors)
	return fmt.Sprintf(`(() => {
	const selectors = %s;
	for (const s of selectors) {
		let b = null;
		try { b = document.querySelector(s); } catch (e) { continue; }
		if (b && b.offsetParent !== null) { b.click(); return true; }
	}
	if (%t) {
		const form = document.querySelector('form');
		if (form) { form.submit(); return true; }
	}
	return false;
})()`, list, formFallback)
}

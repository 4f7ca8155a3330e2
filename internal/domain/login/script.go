package login

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// Script sets field values straight through the DOM instead of typing.
type Script struct {
	sel  FieldSelectors
	opts Options
}

// NewScript creates the script strategy.
func NewScript(sel FieldSelectors, opts Options) *Script {
	return &Script{sel: sel, opts: opts}
}

func (s *Script) Name() string { return "script" }

func (s *Script) Attempt(ctx context.Context, page browser.Page, creds Credentials) Result {
	if err := sleep(ctx, s.opts.ScriptDelay); err != nil {
		return Result{Outcome: Failed, Reason: err.Error()}
	}

	var ok bool
	if err := page.Evaluate(ctx, injectScript(s.sel, creds), &ok); err != nil {
		return classify(err)
	}
	if !ok {
		return notFound("script found no fields")
	}
	return found("script injection")
}

func injectScript(sel FieldSelectors, creds Credentials) string {
	js := func(v any) string {
		b, _ := json.Marshal(v)
		return string(b)
	}
	return fmt.Sprintf(`((username, password, userSelectors, passSelectors, submitSelectors) => {
	const pick = (list, rendered) => {
		let el = null;
		for (const s of list) {
			el = document.querySelector(s);
			if (el && (!rendered || el.offsetParent !== null)) return el;
		}
		return el;
	};
	const user = pick(userSelectors, true);
	const pass = pick(passSelectors, false);
	if (!user || !pass) return false;
	const set = (el, v) => {
		el.value = v;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	};
	set(user, username);
	set(pass, password);
	const submit = pick(submitSelectors, false);
	if (submit) {
		submit.click();
	} else {
		pass.dispatchEvent(new KeyboardEvent('keydown', { key: 'Enter', bubbles: true }));
	}
	return true;
})(%s, %s, %s, %s, %s)`,
		js(creds.Username), js(creds.Password), js(sel.Username), js(sel.Password), js(sel.Submit))
}

package login

import (
	"context"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
)

// Frames looks for the login form inside embedded frames.
type Frames struct {
	sel  FieldSelectors
	opts Options
}

// NewFrames creates the frames strategy.
func NewFrames(sel FieldSelectors, opts Options) *Frames {
	return &Frames{sel: sel, opts: opts}
}

func (f *Frames) Name() string { return "frames" }

// Attempt fills and submits in the first frame holding both fields.
// Frames are probed without waiting: they have had the settle delay.
func (f *Frames) Attempt(ctx context.Context, page browser.Page, creds Credentials) Result {
	frames, err := page.Frames(ctx)
	if err != nil {
		return classify(err)
	}

	for _, frame := range frames {
		user, _, err := firstVisible(ctx, frame, f.sel.Username, 0)
		if err != nil {
			return classify(err)
		}
		pass, _, err := firstVisible(ctx, frame, f.sel.Password, 0)
		if err != nil {
			return classify(err)
		}
		if user == nil || pass == nil {
			continue
		}

		if err := user.Type(ctx, creds.Username, 0); err != nil {
			return classify(err)
		}
		if err := pass.Type(ctx, creds.Password, 0); err != nil {
			return classify(err)
		}

		button, _, err := firstVisible(ctx, frame, f.sel.Submit, 0)
		if err != nil {
			return classify(err)
		}
		if button != nil {
			err = button.Click(ctx)
		} else {
			err = pass.Press(ctx, "Enter")
		}
		if err != nil {
			return classify(err)
		}
		return found("frame form")
	}

	return notFound("no frame with a login form")
}

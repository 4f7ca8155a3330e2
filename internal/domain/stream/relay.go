package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"go.uber.org/zap"
)

// Interaction kinds.
const (
	InteractionClick    = "click"
	InteractionType     = "type"
	InteractionKeypress = "keypress"
	InteractionScroll   = "scroll"
)

// Interaction is one input event from the viewer.
type Interaction struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Text   string  `json:"text,omitempty"`
	Key    string  `json:"key,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
}

// SessionGetter looks up a user's live session.
type SessionGetter interface {
	Get(userID string) *session.Session
}

// Relay applies viewer input to the user's live page.
type Relay struct {
	sessions SessionGetter
	delay    time.Duration
	keyDelay time.Duration
	metrics  Metrics
	logger   *zap.Logger
}

// NewRelay creates a Relay. delay is waited after every interaction so
// the page can react before the next one; keyDelay separates typed keys.
func NewRelay(sessions SessionGetter, delay, keyDelay time.Duration, metrics Metrics, logger *zap.Logger) *Relay {
	return &Relay{sessions: sessions, delay: delay, keyDelay: keyDelay, metrics: metrics, logger: logger}
}

// Apply performs in on userID's page. Unknown kinds are ignored.
func (r *Relay) Apply(ctx context.Context, userID string, in Interaction) error {
	sess := r.sessions.Get(userID)
	if sess == nil || !sess.Alive() {
		r.metrics.RecordInteraction(in.Type, "no_session")
		return fmt.Errorf("%w: %s", ErrNoActiveSession, userID)
	}
	page := sess.Page()

	var err error
	switch in.Type {
	case InteractionClick:
		err = page.Click(ctx, in.X, in.Y)
	case InteractionType:
		err = page.Type(ctx, in.Text, r.keyDelay)
	case InteractionKeypress:
		err = page.Press(ctx, in.Key)
	case InteractionScroll:
		err = page.Scroll(ctx, in.DeltaY)
	default:
		r.logger.Debug("Ignoring interaction", zap.String("user_id", userID), zap.String("type", in.Type))
		r.metrics.RecordInteraction("unknown", "ignored")
	}
	if err != nil {
		r.metrics.RecordInteraction(in.Type, "error")
		return fmt.Errorf("%s interaction: %w", in.Type, err)
	}
	if known(in.Type) {
		r.metrics.RecordInteraction(in.Type, "ok")
	}

	return sleep(ctx, r.delay)
}

func known(kind string) bool {
	switch kind {
	case InteractionClick, InteractionType, InteractionKeypress, InteractionScroll:
		return true
	}
	return false
}

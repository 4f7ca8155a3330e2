package audit

import (
	"context"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/shared/id"
)

// ActionPlatformAccess is recorded when an operator opens a platform.
const ActionPlatformAccess = "platform_access"

// Outcome values.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Defaults describing the proxy browser as the access client.
const (
	DefaultUserAgent = "Headless Browser Automation"
	DefaultIPAddress = "127.0.0.1"
)

// Event is one platform access record.
type Event struct {
	ID          id.EventID `json:"id"`
	ActorID     string     `json:"actorId"`
	PlatformID  string     `json:"platformId"`
	Action      string     `json:"action"`
	Description string     `json:"description"`
	Outcome     string     `json:"status"`
	SessionID   string     `json:"sessionId"`
	UserAgent   string     `json:"userAgent"`
	IPAddress   string     `json:"ipAddress"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Sink persists or forwards access events.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Normalize fills the id, timestamp and client defaults.
func (e Event) Normalize() Event {
	if e.ID == "" {
		e.ID = id.NewEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Action == "" {
		e.Action = ActionPlatformAccess
	}
	if e.UserAgent == "" {
		e.UserAgent = DefaultUserAgent
	}
	if e.IPAddress == "" {
		e.IPAddress = DefaultIPAddress
	}
	return e
}

package stream

import "encoding/json"

// Outbound event names.
const (
	EventLoginStatus      = "login-status"
	EventScreenshot       = "screenshot"
	EventPageError        = "page-error"
	EventPageDialog       = "page-dialog"
	EventStreamStarted    = "stream-started"
	EventStreamError      = "stream-error"
	EventStreamStopped    = "stream-stopped"
	EventInteractionError = "interaction-error"
)

// Status is the phase reported by a login-status event.
type Status string

const (
	StatusNavigating Status = "navigating"
	StatusLoggingIn  Status = "logging-in"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// User-facing messages.
const (
	msgNavigating     = "Navigating to %s..."
	msgLoggingIn      = "Attempting automatic login..."
	msgLoggedIn       = "Successfully logged in! You can now interact with the platform."
	msgLoginOptional  = "Platform loaded! Login manually if needed or interact with the platform."
	msgManualLogin    = "Platform loaded! Please login manually and interact with the platform."
	msgLoadFailed     = "Failed to load platform. Please contact support."
	msgStarted        = "Platform streaming started successfully"
	msgStartedManual  = "Platform streaming started (manual login required)"
	msgStartFailed    = "Failed to start platform streaming"
	msgStopped        = "Platform streaming stopped"
	msgInteractFailed = "Failed to process interaction"
)

// LoginStatus is the login-status payload.
type LoginStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Screenshot is the screenshot payload. Image is a JPEG data URI.
type Screenshot struct {
	Image     string `json:"image"`
	Timestamp int64  `json:"timestamp"`
}

// MarshalJSON also writes the frame under "screenshot", the key earlier
// viewer builds read.
func (s Screenshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Image      string `json:"image"`
		Screenshot string `json:"screenshot"`
		Timestamp  int64  `json:"timestamp"`
	}{s.Image, s.Image, s.Timestamp})
}

// PageError is the page-error payload.
type PageError struct {
	Message string `json:"message"`
}

// PageDialog is the page-dialog payload.
type PageDialog struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Ack is the payload of stream-started, stream-error and stream-stopped.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InteractionError is the interaction-error payload.
type InteractionError struct {
	Message string `json:"message"`
}

// Emitter delivers an event to every connection watching userID.
type Emitter interface {
	Emit(userID, event string, payload any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(userID, event string, payload any)

func (f EmitterFunc) Emit(userID, event string, payload any) { f(userID, event, payload) }

// Reply is an event addressed to the connection that made a request. An
// empty Event means nothing is sent.
type Reply struct {
	Event   string
	Payload any
}

// Empty reports whether the reply carries no event.
func (r Reply) Empty() bool { return r.Event == "" }

func started(msg string) Reply {
	return Reply{Event: EventStreamStarted, Payload: Ack{Success: true, Message: msg}}
}

func failed(msg string) Reply {
	return Reply{Event: EventStreamError, Payload: Ack{Success: false, Message: msg}}
}

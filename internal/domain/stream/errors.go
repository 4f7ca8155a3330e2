package stream

import "errors"

var (
	// ErrNavigationTimeout means the platform did not load in time.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrNoActiveSession means an interaction arrived for a user without a
	// live session.
	ErrNoActiveSession = errors.New("no active session found")
	// ErrCaptureFailure means a frame could not be taken. It ends the
	// capture loop of that session only.
	ErrCaptureFailure = errors.New("screenshot capture failed")

	// errSuperseded means the session was stopped or replaced while it
	// was still starting.
	errSuperseded = errors.New("session superseded during start")
)

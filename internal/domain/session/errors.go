package session

import "errors"

var (
	ErrLaunchFailure = errors.New("session launch failed")
	ErrInvalidUser   = errors.New("user id is required")
)

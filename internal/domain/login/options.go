package login

import "time"

// Options tunes probe timeouts and typing cadence.
type Options struct {
	// ProbeTimeout bounds the wait for each field selector.
	ProbeTimeout time.Duration
	// SubmitProbeTimeout bounds the wait for each submit selector.
	SubmitProbeTimeout time.Duration
	// SubmitWait is how long the direct strategy lets a submit settle.
	SubmitWait time.Duration
	// Settle is waited once before the first strategy.
	Settle time.Duration
	// ScriptDelay is waited before the script strategy runs.
	ScriptDelay time.Duration
	// KeyDelay separates keystrokes on the first fill attempt.
	KeyDelay time.Duration
	// RetryKeyDelay separates keystrokes when a fill is retried.
	RetryKeyDelay time.Duration
	// Pause follows select-all and clear.
	Pause time.Duration
}

// DefaultOptions returns production timings.
func DefaultOptions() Options {
	return Options{
		ProbeTimeout:       2 * time.Second,
		SubmitProbeTimeout: time.Second,
		SubmitWait:         5 * time.Second,
		Settle:             2 * time.Second,
		ScriptDelay:        2 * time.Second,
		KeyDelay:           50 * time.Millisecond,
		RetryKeyDelay:      100 * time.Millisecond,
		Pause:              100 * time.Millisecond,
	}
}

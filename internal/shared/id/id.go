// Package id generates prefixed, time-sortable identifiers.
//
// Session, access-event and trace ids are ULIDs with a short type prefix
// (sess_*, evt_*, trc_*) so log lines and audit rows read naturally and
// sort by creation time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one proxied browser session.
type SessionID string

// EventID identifies one recorded access event.
type EventID string

const (
	SessionPrefix = "sess"
	EventPrefix   = "evt"
	TracePrefix   = "trc"
	SpanPrefix    = "spn"
)

// Generator produces monotonic ULIDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// WithPrefix creates a "prefix_ULID" string.
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().WithPrefix(SessionPrefix))
}

// NewEventID generates a new access event ID
func NewEventID() EventID {
	return EventID(Default().WithPrefix(EventPrefix))
}

// NewTraceID generates an id shared by every span of one request.
func NewTraceID() string {
	return Default().WithPrefix(TracePrefix)
}

// NewSpanID generates an id for one traced operation.
func NewSpanID() string {
	return Default().WithPrefix(SpanPrefix)
}

func (id SessionID) String() string { return string(id) }
func (id EventID) String() string   { return string(id) }

// Timestamp extracts the creation time from a prefixed or bare ULID.
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

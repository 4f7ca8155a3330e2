package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{SessionPrefix, EventPrefix} {
		id := gen.WithPrefix(prefix)

		parts := strings.Split(id, "_")
		require.Len(t, parts, 2, id)
		assert.Equal(t, prefix, parts[0])

		_, err := ulid.Parse(parts[1])
		assert.NoError(t, err)
	}
}

func TestGenerateIsMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		require.Equal(t, -1, prev.Compare(next), "ids must strictly increase")
		prev = next
	}
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewSessionID().String(), "sess_"))
	assert.True(t, strings.HasPrefix(NewEventID().String(), "evt_"))
	assert.True(t, strings.HasPrefix(NewTraceID(), "trc_"))
	assert.True(t, strings.HasPrefix(NewSpanID(), "spn_"))
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewSessionID()

	ts, err := Timestamp(id.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("sess_not-a-ulid")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, per = 8, 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				id := gen.WithPrefix(SessionPrefix)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*per)
}

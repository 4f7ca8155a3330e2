package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errDown = errors.New("collector down")

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		calls     []bool // true = success, false = failure
		want      State
	}{
		{name: "stays closed on successes", threshold: 3, calls: []bool{true, true, true}, want: StateClosed},
		{name: "opens after consecutive failures", threshold: 3, calls: []bool{false, false, false}, want: StateOpen},
		{name: "success resets the failure run", threshold: 3, calls: []bool{false, false, true, false, false}, want: StateClosed},
		{name: "threshold of one", threshold: 1, calls: []bool{false}, want: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(0, 0)}
			b := New("test", Settings{FailureThreshold: tt.threshold, Cooldown: time.Minute, Now: clock.Now})

			for _, ok := range tt.calls {
				fn := fail
				if ok {
					fn = succeed
				}
				_ = b.Execute(context.Background(), fn)
			}

			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("test", Settings{FailureThreshold: 1, Cooldown: time.Minute, Now: clock.Now})

	require.ErrorIs(t, b.Execute(context.Background(), fail), errDown)

	called := false
	err := b.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	b := New("test", Settings{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		Now:              clock.Now,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Execute(context.Background(), fail)
	clock.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	// failed probe reopens
	_ = b.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, b.State())

	clock.Advance(time.Minute)
	require.NoError(t, b.Execute(context.Background(), succeed))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "half-open->open", "half-open->closed"}, transitions)
}

func TestBreakerSingleProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("test", Settings{FailureThreshold: 1, Cooldown: time.Second, Now: clock.Now})
	_ = b.Execute(context.Background(), fail)
	clock.Advance(time.Second)

	inProbe := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(context.Background(), func(context.Context) error {
			close(inProbe)
			<-release
			return nil
		})
	}()

	<-inProbe
	assert.ErrorIs(t, b.Execute(context.Background(), succeed), ErrCircuitOpen)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"github.com/GriffinCanCode/accessproxy/internal/providers/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countObserver struct {
	mu     sync.Mutex
	counts []int
}

func (o *countObserver) SetSessionsActive(n int) {
	o.mu.Lock()
	o.counts = append(o.counts, n)
	o.mu.Unlock()
}

func (o *countObserver) last() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.counts) == 0 {
		return -1
	}
	return o.counts[len(o.counts)-1]
}

func request(user string) Request {
	return Request{
		UserID:   user,
		Platform: Platform{ID: "p1", Name: "Portal", URL: "portal.example.com"},
		Identity: Identity{ID: "e1", DisplayName: "Ada"},
	}
}

func TestStartOrReplaceRegistersSession(t *testing.T) {
	launcher := &browsertest.Launcher{}
	obs := &countObserver{}
	r := NewRegistry(launcher, nil).WithObserver(obs)

	sess, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)

	assert.Same(t, sess, r.Get("u1"))
	assert.True(t, r.IsCurrent(sess))
	assert.True(t, sess.Alive())
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, 1, obs.last())
	assert.Contains(t, sess.ID.String(), "sess_")
}

func TestStartOrReplaceRequiresUser(t *testing.T) {
	r := NewRegistry(&browsertest.Launcher{}, nil)

	_, err := r.StartOrReplace(context.Background(), request(""))
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestReplaceClosesPreviousBeforeLaunch(t *testing.T) {
	launcher := &browsertest.Launcher{}
	launcher.NewPage = func() *browsertest.Page {
		p := browsertest.NewPage()
		p.CloseDelay = 20 * time.Millisecond
		return p
	}
	r := NewRegistry(launcher, nil)

	first, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)

	var closedAtSecondLaunch bool
	launcher.OnLaunch = func(n int) {
		if n == 2 {
			closedAtSecondLaunch = launcher.Pages()[0].Closed()
		}
	}

	second, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)

	assert.True(t, closedAtSecondLaunch, "old browser must be closed before the new one launches")
	assert.NotSame(t, first, second)
	assert.False(t, first.Alive())
	assert.False(t, r.IsCurrent(first))
	assert.Same(t, second, r.Get("u1"))
	assert.Equal(t, 1, r.Count())
}

func TestConcurrentStartsKeepOneSessionPerUser(t *testing.T) {
	launcher := &browsertest.Launcher{}
	r := NewRegistry(launcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.StartOrReplace(context.Background(), request("u1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Count())
	open := 0
	for _, p := range launcher.Pages() {
		if !p.Closed() {
			open++
		}
	}
	assert.Equal(t, 1, open, "exactly one browser may survive")
}

func TestLaunchFailureIsIsolated(t *testing.T) {
	launcher := &browsertest.Launcher{}
	r := NewRegistry(launcher, nil)

	_, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)

	launcher.Err = errors.New("chrome not found")
	_, err = r.StartOrReplace(context.Background(), request("u2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunchFailure)

	assert.NotNil(t, r.Get("u1"))
	assert.Nil(t, r.Get("u2"))
}

func TestCloseIsIdempotent(t *testing.T) {
	launcher := &browsertest.Launcher{}
	r := NewRegistry(launcher, nil)

	sess, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)

	r.Close("u1")
	r.Close("u1")
	r.Close("never-started")

	assert.Nil(t, r.Get("u1"))
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 1, launcher.Last().CloseCalls())
	assert.NoError(t, sess.Close())

	select {
	case <-sess.Done():
	default:
		t.Fatal("session context must be cancelled")
	}
}

func TestReleaseOnlyRemovesCurrent(t *testing.T) {
	r := NewRegistry(&browsertest.Launcher{}, nil)

	old, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)
	current, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)

	r.Release(old)
	assert.Same(t, current, r.Get("u1"))

	r.Release(current)
	assert.Nil(t, r.Get("u1"))
	assert.False(t, current.Alive())
}

func TestCloseAll(t *testing.T) {
	launcher := &browsertest.Launcher{}
	obs := &countObserver{}
	r := NewRegistry(launcher, nil).WithObserver(obs)

	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := r.StartOrReplace(context.Background(), request(u))
		require.NoError(t, err)
	}
	require.Equal(t, 3, r.Count())

	r.CloseAll()

	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, obs.last())
	for _, p := range launcher.Pages() {
		assert.True(t, p.Closed())
	}
}

func TestListAndInfo(t *testing.T) {
	r := NewRegistry(&browsertest.Launcher{}, nil)

	a, err := r.StartOrReplace(context.Background(), request("u1"))
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = r.StartOrReplace(context.Background(), request("u2"))
	require.NoError(t, err)

	a.SetLoggedIn(true)
	a.SetCookies([]browser.Cookie{{Name: "sid"}})

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "u1", infos[0].UserID)
	assert.Equal(t, "Portal", infos[0].PlatformName)
	assert.Equal(t, "Ada", infos[0].IdentityName)
	assert.True(t, infos[0].LoggedIn)
	assert.Equal(t, 1, infos[0].Cookies)
	assert.Equal(t, "u2", infos[1].UserID)
}

func TestPageEventHandlerIsPassedToLauncher(t *testing.T) {
	launcher := &browsertest.Launcher{}
	r := NewRegistry(launcher, nil)

	var got []browser.PageEvent
	req := request("u1")
	req.OnPageEvent = func(ev browser.PageEvent) { got = append(got, ev) }

	_, err := r.StartOrReplace(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, launcher.Fire(1, browser.PageEvent{Kind: browser.EventPageError, Message: "boom"}))
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].Message)
}

func TestUserLocksAreForgotten(t *testing.T) {
	launcher := &browsertest.Launcher{}
	r := NewRegistry(launcher, nil)

	for _, user := range []string{"u1", "u2", "u3"} {
		_, err := r.StartOrReplace(context.Background(), request(user))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.lockCount())

	r.Close("u1")
	r.Close("ghost")
	assert.Equal(t, 2, r.lockCount())

	r.Release(r.Get("u2"))
	assert.Equal(t, 1, r.lockCount())

	r.CloseAll()
	assert.Equal(t, 0, r.lockCount())

	launcher.Err = errors.New("chrome not found")
	_, err := r.StartOrReplace(context.Background(), request("u4"))
	require.Error(t, err)
	assert.Equal(t, 0, r.lockCount())
}

func TestUserLocksSurviveConcurrentChurn(t *testing.T) {
	r := NewRegistry(&browsertest.Launcher{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := r.StartOrReplace(context.Background(), request("u1"))
				assert.NoError(t, err)
				return
			}
			r.Close("u1")
		}(i)
	}
	wg.Wait()

	r.Close("u1")
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.lockCount())
}

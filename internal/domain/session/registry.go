package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Launcher starts the browser backing a new session.
type Launcher interface {
	Launch(ctx context.Context, onEvent browser.EventHandler) (browser.Page, error)
}

// Observer is told the live session count after every change.
type Observer interface {
	SetSessionsActive(count int)
}

// Request describes a session to start.
type Request struct {
	UserID   string
	Platform Platform
	Identity Identity
	// OnPageEvent receives the new page's errors and dialogs.
	OnPageEvent browser.EventHandler
}

// Registry maps each user to at most one live Session.
type Registry struct {
	launcher Launcher
	logger   *zap.Logger
	observer Observer

	mu       sync.Mutex
	sessions map[string]*Session  // Protected by mu
	locks    map[string]*userLock // Protected by mu
}

// userLock serialises lifecycle changes for one user. refs counts holders
// and waiters so an idle lock can be dropped.
type userLock struct {
	mu   sync.Mutex
	refs int // Protected by Registry.mu
}

// NewRegistry creates an empty registry.
func NewRegistry(launcher Launcher, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		launcher: launcher,
		logger:   logger,
		sessions: make(map[string]*Session),
		locks:    make(map[string]*userLock),
	}
}

// WithObserver reports session counts to o.
func (r *Registry) WithObserver(o Observer) *Registry {
	r.observer = o
	return r
}

// lockUser blocks until the caller owns the user's lifecycle lock.
func (r *Registry) lockUser(userID string) *userLock {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &userLock{}
		r.locks[userID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return l
}

// unlockUser releases l and forgets it once nobody waits on it and the
// user has no session.
func (r *Registry) unlockUser(userID string, l *userLock) {
	l.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	l.refs--
	r.pruneLocked(userID)
}

// pruneLocked drops an idle lock. Caller holds r.mu.
func (r *Registry) pruneLocked(userID string) {
	l, ok := r.locks[userID]
	if !ok || l.refs > 0 {
		return
	}
	if _, live := r.sessions[userID]; !live {
		delete(r.locks, userID)
	}
}

// StartOrReplace closes any existing session for the user, waits for its
// teardown to finish, then launches a new one.
func (r *Registry) StartOrReplace(ctx context.Context, req Request) (*Session, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUser
	}

	lock := r.lockUser(req.UserID)
	defer r.unlockUser(req.UserID, lock)

	if prev := r.detach(req.UserID); prev != nil {
		r.logger.Info("Replacing browser session",
			zap.String("user_id", req.UserID),
			zap.String("session_id", prev.ID.String()))
		r.closeQuietly(prev)
	}

	page, err := r.launcher.Launch(ctx, req.OnPageEvent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	sess := newSession(req.UserID, req.Platform, req.Identity, page)

	r.mu.Lock()
	r.sessions[req.UserID] = sess
	n := len(r.sessions)
	r.mu.Unlock()
	r.observe(n)

	r.logger.Info("Browser session started",
		zap.String("user_id", req.UserID),
		zap.String("session_id", sess.ID.String()),
		zap.String("platform", req.Platform.Name))
	return sess, nil
}

// Get returns the user's live session, or nil.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// IsCurrent reports whether sess is still the user's registered session.
func (r *Registry) IsCurrent(sess *Session) bool {
	if sess == nil {
		return false
	}
	return r.Get(sess.UserID) == sess
}

// Close stops the user's session. Absent users are a no-op.
func (r *Registry) Close(userID string) {
	lock := r.lockUser(userID)
	defer r.unlockUser(userID, lock)

	if sess := r.detach(userID); sess != nil {
		r.closeQuietly(sess)
		r.logger.Info("Browser session closed", zap.String("user_id", userID))
	}
}

// Release removes sess if it is still the user's current session, then
// closes it. Used when a start fails after the launch succeeded.
func (r *Registry) Release(sess *Session) {
	if sess == nil {
		return
	}
	r.mu.Lock()
	removed := false
	if r.sessions[sess.UserID] == sess {
		delete(r.sessions, sess.UserID)
		removed = true
	}
	r.pruneLocked(sess.UserID)
	n := len(r.sessions)
	r.mu.Unlock()

	if removed {
		r.observe(n)
	}
	r.closeQuietly(sess)
}

// CloseAll closes every session concurrently and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	for userID := range r.locks {
		r.pruneLocked(userID)
	}
	r.mu.Unlock()
	r.observe(0)

	var g errgroup.Group
	for _, s := range all {
		g.Go(func() error {
			r.closeQuietly(s)
			return nil
		})
	}
	_ = g.Wait()

	if len(all) > 0 {
		r.logger.Info("All browser sessions closed", zap.Int("count", len(all)))
	}
}

func (r *Registry) lockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List returns snapshots of all sessions ordered by start time.
func (r *Registry) List() []Info {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(all))
	for _, s := range all {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartTime.Before(infos[j].StartTime)
	})
	return infos
}

func (r *Registry) detach(userID string) *Session {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.observe(n)
	}
	return sess
}

func (r *Registry) closeQuietly(sess *Session) {
	if err := sess.Close(); err != nil {
		r.logger.Warn("Browser close failed",
			zap.String("user_id", sess.UserID),
			zap.String("session_id", sess.ID.String()),
			zap.Error(err))
	}
}

func (r *Registry) observe(n int) {
	if r.observer != nil {
		r.observer.SetSessionsActive(n)
	}
}

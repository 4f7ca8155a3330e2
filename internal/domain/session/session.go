package session

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"github.com/GriffinCanCode/accessproxy/internal/shared/id"
)

// Platform describes the third-party site a session proxies.
type Platform struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Identity describes the operator a session runs on behalf of.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Session is one user's live proxy browser.
type Session struct {
	ID        id.SessionID
	UserID    string
	Platform  Platform
	Identity  Identity
	CreatedAt time.Time

	page   browser.Page
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	loggedIn bool
	cookies  []browser.Cookie

	closeOnce sync.Once
	closeErr  error
}

func newSession(userID string, platform Platform, identity Identity, page browser.Page) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:        id.NewSessionID(),
		UserID:    userID,
		Platform:  platform,
		Identity:  identity,
		CreatedAt: time.Now(),
		page:      page,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Page returns the browser page owned by the session.
func (s *Session) Page() browser.Page { return s.page }

// Context is cancelled when the session closes. Work bound to the session
// (navigation, login, capture) runs under it.
func (s *Session) Context() context.Context { return s.ctx }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Alive reports whether the session is open and its page usable.
func (s *Session) Alive() bool {
	return s.ctx.Err() == nil && s.page.Valid()
}

func (s *Session) SetLoggedIn(v bool) {
	s.mu.Lock()
	s.loggedIn = v
	s.mu.Unlock()
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *Session) SetCookies(c []browser.Cookie) {
	s.mu.Lock()
	s.cookies = append([]browser.Cookie(nil), c...)
	s.mu.Unlock()
}

func (s *Session) Cookies() []browser.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]browser.Cookie(nil), s.cookies...)
}

// Close cancels the session context, then closes the page. Later calls
// return the first call's result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.page.Close()
	})
	return s.closeErr
}

// Info is a secret-free snapshot of a session.
type Info struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	PlatformID   string    `json:"platformId"`
	PlatformName string    `json:"platformName"`
	IdentityName string    `json:"employeeName"`
	StartTime    time.Time `json:"startTime"`
	LoggedIn     bool      `json:"isLoggedIn"`
	Cookies      int       `json:"cookies"`
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		SessionID:    s.ID.String(),
		UserID:       s.UserID,
		PlatformID:   s.Platform.ID,
		PlatformName: s.Platform.Name,
		IdentityName: s.Identity.DisplayName,
		StartTime:    s.CreatedAt,
		LoggedIn:     s.loggedIn,
		Cookies:      len(s.cookies),
	}
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/audit"
	"github.com/GriffinCanCode/accessproxy/internal/domain/login"
	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"github.com/GriffinCanCode/accessproxy/internal/providers/browser"
	"go.uber.org/zap"
)

// Session start outcomes reported to metrics.
const (
	startAuto     = "auto"
	startManual   = "manual"
	startFallback = "fallback"
	startFailed   = "failed"
)

// LoginChain injects credentials into a loaded page.
type LoginChain interface {
	Attempt(ctx context.Context, page browser.Page, creds login.Credentials) login.Report
}

// Options holds engine timings.
type Options struct {
	CaptureInterval   time.Duration
	CaptureQuality    int
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	InteractionDelay  time.Duration
	TypeDelay         time.Duration
	AuditTimeout      time.Duration
}

// DefaultOptions returns production timings.
func DefaultOptions() Options {
	return Options{
		CaptureInterval:   time.Second,
		CaptureQuality:    80,
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       2 * time.Second,
		InteractionDelay:  100 * time.Millisecond,
		TypeDelay:         50 * time.Millisecond,
		AuditTimeout:      5 * time.Second,
	}
}

// Deps are the collaborators of an Engine. Audit, Metrics and Logger are
// optional.
type Deps struct {
	Registry *session.Registry
	Chain    LoginChain
	Emitter  Emitter
	Audit    audit.Sink
	Metrics  Metrics
	Logger   *zap.Logger
}

// StartRequest asks for a platform session on behalf of a user.
type StartRequest struct {
	UserID    string
	Platform  session.Platform
	Identity  session.Identity
	AutoLogin bool
}

// Engine runs the session lifecycle: start (launch, navigate, login,
// stream), interaction and stop. It is the only place that turns failures
// into outward events.
type Engine struct {
	registry  *session.Registry
	chain     LoginChain
	emitter   Emitter
	audit     audit.Sink
	metrics   Metrics
	logger    *zap.Logger
	opts      Options
	navigator *Navigator
	streamer  *Streamer
	relay     *Relay
}

// NewEngine wires an Engine.
func NewEngine(deps Deps, opts Options) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var metrics Metrics = nopMetrics{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = EmitterFunc(func(string, string, any) {})
	}

	e := &Engine{
		registry: deps.Registry,
		chain:    deps.Chain,
		emitter:  emitter,
		audit:    deps.Audit,
		metrics:  metrics,
		logger:   logger.Named("stream"),
		opts:     opts,
	}
	e.navigator = NewNavigator(emitter, opts.NavigationTimeout, opts.SettleDelay, e.logger)
	e.streamer = NewStreamer(deps.Registry, emitter, opts.CaptureInterval, opts.CaptureQuality, metrics, e.logger)
	e.relay = NewRelay(deps.Registry, opts.InteractionDelay, opts.TypeDelay, metrics, e.logger)
	return e
}

// StartSession replaces any session the user has with a new one for the
// requested platform. When the automatic login path fails after launch,
// one manual-login attempt follows before the request is reported failed.
// A start interrupted by a stop or a newer start produces no reply.
func (e *Engine) StartSession(ctx context.Context, req StartRequest) Reply {
	log := e.logger.With(zap.String("user_id", req.UserID), zap.String("platform", req.Platform.Name))

	err := e.start(ctx, req, req.AutoLogin)
	switch {
	case err == nil:
		if req.AutoLogin {
			e.metrics.RecordSessionStart(startAuto)
		} else {
			e.metrics.RecordSessionStart(startManual)
		}
		return started(msgStarted)
	case errors.Is(err, errSuperseded):
		log.Info("Session start superseded")
		return Reply{}
	case req.AutoLogin && !errors.Is(err, session.ErrLaunchFailure) && ctx.Err() == nil:
		log.Warn("Automatic start failed, retrying with manual login", zap.Error(err))
		err = e.start(ctx, req, false)
		if err == nil {
			e.metrics.RecordSessionStart(startFallback)
			return started(msgStartedManual)
		}
		if errors.Is(err, errSuperseded) {
			return Reply{}
		}
	}

	log.Error("Session start failed", zap.Error(err))
	e.metrics.RecordSessionStart(startFailed)
	return failed(msgStartFailed)
}

func (e *Engine) start(ctx context.Context, req StartRequest, auto bool) error {
	sess, err := e.registry.StartOrReplace(ctx, session.Request{
		UserID:      req.UserID,
		Platform:    req.Platform,
		Identity:    req.Identity,
		OnPageEvent: e.pageEvents(req.UserID),
	})
	if err != nil {
		return err
	}

	sctx := sess.Context()
	if err := e.navigator.Navigate(sctx, req.UserID, sess.Page(), req.Platform); err != nil {
		if !e.live(sess) {
			return errSuperseded
		}
		e.metrics.IncNavigationErrors()
		e.status(req.UserID, StatusError, msgLoadFailed)
		e.registry.Release(sess)
		return err
	}

	if !auto {
		e.record(sess, audit.OutcomeSuccess, fmt.Sprintf("Accessed platform %q via streaming (manual login)", req.Platform.Name))
		e.status(req.UserID, StatusSuccess, msgManualLogin)
		e.streamer.Start(sess)
		return nil
	}

	e.status(req.UserID, StatusLoggingIn, msgLoggingIn)
	report := e.chain.Attempt(sctx, sess.Page(), login.Credentials{
		Username: req.Platform.Email,
		Password: req.Platform.Password,
	})
	if !e.live(sess) {
		return errSuperseded
	}

	loggedIn := report.LoggedIn()
	sess.SetLoggedIn(loggedIn)

	outcome := audit.OutcomeFailed
	if loggedIn {
		outcome = audit.OutcomeSuccess
	}
	e.record(sess, outcome, fmt.Sprintf("Accessed platform %q via streaming", req.Platform.Name))

	if loggedIn {
		e.status(req.UserID, StatusSuccess, msgLoggedIn)
	} else {
		e.status(req.UserID, StatusSuccess, msgLoginOptional)
	}
	e.streamer.Start(sess)

	if loggedIn {
		if cookies, err := sess.Page().Cookies(sctx); err == nil {
			sess.SetCookies(cookies)
		} else {
			e.logger.Debug("Cookie capture failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}
	return nil
}

// live reports whether sess is still open and registered for its user.
func (e *Engine) live(sess *session.Session) bool {
	return sess.Alive() && e.registry.IsCurrent(sess)
}

func (e *Engine) status(userID string, status Status, msg string) {
	e.emitter.Emit(userID, EventLoginStatus, LoginStatus{Status: status, Message: msg})
}

// record writes an access event. Sink failures are logged only.
func (e *Engine) record(sess *session.Session, outcome, description string) {
	if e.audit == nil || sess.Identity.ID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.AuditTimeout)
	defer cancel()

	err := e.audit.Record(ctx, audit.Event{
		ActorID:     sess.Identity.ID,
		PlatformID:  sess.Platform.ID,
		Action:      audit.ActionPlatformAccess,
		Description: description,
		Outcome:     outcome,
		SessionID:   sess.ID.String(),
	})
	if err != nil {
		e.logger.Warn("Access event not recorded",
			zap.String("user_id", sess.UserID),
			zap.String("session_id", sess.ID.String()),
			zap.Error(err))
	}
}

// Interact relays in to the user's page. The reply is empty on success.
func (e *Engine) Interact(ctx context.Context, userID string, in Interaction) Reply {
	if err := e.relay.Apply(ctx, userID, in); err != nil {
		e.logger.Debug("Interaction failed", zap.String("user_id", userID), zap.String("type", in.Type), zap.Error(err))
		return Reply{Event: EventInteractionError, Payload: InteractionError{Message: msgInteractFailed}}
	}
	return Reply{}
}

// StopSession closes the user's session and waits for its capture loop to
// exit, so no frame follows the reply. Stopping an absent session succeeds.
func (e *Engine) StopSession(userID string) Reply {
	sess := e.registry.Get(userID)
	e.registry.Close(userID)
	if sess != nil {
		e.streamer.Wait(sess)
		e.metrics.IncSessionStops()
	}
	return Reply{Event: EventStreamStopped, Payload: Ack{Success: true, Message: msgStopped}}
}

// Info returns a snapshot of the user's session.
func (e *Engine) Info(userID string) (session.Info, bool) {
	sess := e.registry.Get(userID)
	if sess == nil {
		return session.Info{}, false
	}
	return sess.Info(), true
}

// List returns snapshots of every live session.
func (e *Engine) List() []session.Info {
	return e.registry.List()
}

// Count returns the number of live sessions.
func (e *Engine) Count() int {
	return e.registry.Count()
}

// Shutdown closes every session.
func (e *Engine) Shutdown() {
	e.registry.CloseAll()
}

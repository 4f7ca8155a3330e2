package stream

import (
	"encoding/base64"
	"sync"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"go.uber.org/zap"
)

// CurrentChecker reports whether a session is still registered.
type CurrentChecker interface {
	IsCurrent(sess *session.Session) bool
}

// Streamer pushes periodic JPEG frames of a session to its watchers.
type Streamer struct {
	registry CurrentChecker
	emitter  Emitter
	interval time.Duration
	quality  int
	metrics  Metrics
	logger   *zap.Logger

	mu    sync.Mutex
	loops map[*session.Session]chan struct{} // Protected by mu
}

// NewStreamer creates a Streamer.
func NewStreamer(registry CurrentChecker, emitter Emitter, interval time.Duration, quality int, metrics Metrics, logger *zap.Logger) *Streamer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Streamer{
		registry: registry,
		emitter:  emitter,
		interval: interval,
		quality:  quality,
		metrics:  metrics,
		logger:   logger,
		loops:    make(map[*session.Session]chan struct{}),
	}
}

// Start launches the capture loop for sess. The loop ends when the session
// context is cancelled, the session is no longer current, or a capture
// fails. Starting an already running loop is a no-op.
func (s *Streamer) Start(sess *session.Session) {
	s.mu.Lock()
	if _, running := s.loops[sess]; running {
		s.mu.Unlock()
		return
	}
	done := make(chan struct{})
	s.loops[sess] = done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.loops, sess)
			s.mu.Unlock()
			close(done)
		}()
		s.run(sess)
	}()
}

// Wait blocks until the capture loop of sess has exited.
func (s *Streamer) Wait(sess *session.Session) {
	s.mu.Lock()
	done, ok := s.loops[sess]
	s.mu.Unlock()
	if ok {
		<-done
	}
}

// Running returns the number of live capture loops.
func (s *Streamer) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loops)
}

func (s *Streamer) run(sess *session.Session) {
	ctx := sess.Context()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := s.logger.With(zap.String("user_id", sess.UserID), zap.String("session_id", sess.ID.String()))
	log.Debug("Capture loop started")
	defer log.Debug("Capture loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.registry.IsCurrent(sess) || !sess.Alive() {
			return
		}

		frame, err := sess.Page().Screenshot(ctx, s.quality)
		if err != nil {
			if ctx.Err() == nil {
				s.metrics.IncCaptureFailures()
				log.Warn("Capture loop ended", zap.Error(ErrCaptureFailure), zap.NamedError("cause", err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		s.metrics.RecordFrame(len(frame))
		s.emitter.Emit(sess.UserID, EventScreenshot, Screenshot{
			Image:     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame),
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

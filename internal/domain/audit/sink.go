package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// LogSink writes access events to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Record(_ context.Context, ev Event) error {
	ev = ev.Normalize()
	l.logger.Info("Platform access",
		zap.String("event_id", ev.ID.String()),
		zap.String("actor_id", ev.ActorID),
		zap.String("platform_id", ev.PlatformID),
		zap.String("action", ev.Action),
		zap.String("status", ev.Outcome),
		zap.String("session_id", ev.SessionID),
		zap.String("description", ev.Description))
	return nil
}

// Recorder receives per-sink outcomes.
type Recorder interface {
	RecordAudit(sink, status string)
}

// Named pairs a sink with the label used in logs and metrics.
type Named struct {
	Name string
	Sink Sink
}

// Multi fans an event out to every sink. One failing sink does not stop
// the others.
type Multi struct {
	sinks    []Named
	recorder Recorder
}

// NewMulti creates a fan-out over sinks.
func NewMulti(sinks ...Named) *Multi {
	return &Multi{sinks: sinks}
}

// WithRecorder reports each sink's outcome to r.
func (m *Multi) WithRecorder(r Recorder) *Multi {
	m.recorder = r
	return m
}

// Len returns the number of sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Record delivers ev to every sink and joins their errors.
func (m *Multi) Record(ctx context.Context, ev Event) error {
	ev = ev.Normalize()
	var errs []error
	for _, s := range m.sinks {
		status := "ok"
		if err := s.Sink.Record(ctx, ev); err != nil {
			status = "error"
			errs = append(errs, err)
		}
		if m.recorder != nil {
			m.recorder.RecordAudit(s.Name, status)
		}
	}
	return errors.Join(errs...)
}

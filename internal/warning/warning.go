// Package warning carries non-fatal diagnostics to operators, outside the
// chat transcript.
package warning

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/medassist/pkg/logger"
)

// Class groups warnings.
type Class string

const (
	// ClassCompletion is a failed completion call; Class carries the failure class.
	ClassCompletion Class = "completion"
	// ClassMissingCredential is raised once at startup when no API key is configured.
	ClassMissingCredential Class = "missing_credential"
)

// Warning is one diagnostic event.
type Warning struct {
	Class         Class     `json:"class"`
	FailureClass  string    `json:"failure_class,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	StatusCode    int       `json:"status_code,omitempty"`
	Detail        string    `json:"detail"`
	Time          time.Time `json:"time"`
}

// Sink receives warnings. Warn must not block on slow consumers for long and
// never fails the caller.
type Sink interface {
	Warn(ctx context.Context, w Warning)
}

// LogSink writes warnings to a zap logger.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink that logs at warn level.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Warn implements Sink.
func (s *LogSink) Warn(ctx context.Context, w Warning) {
	fields := []zap.Field{
		zap.String("class", string(w.Class)),
		zap.String("detail", w.Detail),
	}
	if w.FailureClass != "" {
		fields = append(fields, zap.String("failure_class", w.FailureClass))
	}
	if w.SessionID != "" {
		fields = append(fields, zap.String("session_id", w.SessionID))
	}
	if w.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", w.CorrelationID))
	}
	if w.Provider != "" {
		fields = append(fields, zap.String("provider", w.Provider))
	}
	if w.StatusCode != 0 {
		fields = append(fields, zap.Int("status_code", w.StatusCode))
	}

	s.log.Warn("operator warning", fields...)
}

// Multi fans a warning out to every sink in order.
type Multi []Sink

// Warn implements Sink.
func (m Multi) Warn(ctx context.Context, w Warning) {
	for _, s := range m {
		if s != nil {
			s.Warn(ctx, w)
		}
	}
}

// Nop discards warnings.
type Nop struct{}

// Warn implements Sink.
func (Nop) Warn(context.Context, Warning) {}

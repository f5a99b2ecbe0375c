package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// DefaultSubjectPrefix is the prefix for warning subjects.
	DefaultSubjectPrefix = "medassist.warnings"

	// StreamName is the name of the optional warnings stream.
	StreamName = "MEDASSIST_WARNINGS"
)

// StreamConfig controls the optional JetStream capture of warnings.
type StreamConfig struct {
	SubjectPrefix string
	MaxAge        time.Duration
}

// EnsureWarningStream creates a memory-backed stream that retains published
// warnings for MaxAge so operators can replay recent diagnostics.
func (c *Client) EnsureWarningStream(ctx context.Context, cfg StreamConfig) error {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	_, err := c.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = c.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", prefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      maxAge,
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		Description: "Operator warnings raised by chat sessions",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// WarningSubject returns the subject for a session's warnings.
func WarningSubject(prefix, sessionID string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if sessionID == "" {
		sessionID = "system"
	}
	return fmt.Sprintf("%s.%s", prefix, sessionID)
}

// WarningFilter returns the filter subject for every session's warnings.
func WarningFilter(prefix string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + ".>"
}

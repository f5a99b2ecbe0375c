package nats

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/capitalize-ai/medassist/internal/warning"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher is a warning.Sink that publishes JSON warnings to
// <prefix>.<session_id>.
type Publisher struct {
	conn   Conn
	prefix string
	logger *logger.Logger
}

// NewPublisher creates a publisher on conn.
func NewPublisher(conn Conn, prefix string, log *logger.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix, logger: log}
}

// Warn implements warning.Sink. Publish failures are logged and dropped.
func (p *Publisher) Warn(ctx context.Context, w warning.Warning) {
	data, err := json.Marshal(w)
	if err != nil {
		p.logger.Error("failed to marshal warning", zap.Error(err))
		return
	}

	subject := WarningSubject(p.prefix, w.SessionID)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish warning",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

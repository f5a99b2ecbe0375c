package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/capitalize-ai/medassist/internal/warning"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

func TestPublisherSubjectAndPayload(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "ops.warn", logger.NewNop())

	p.Warn(context.Background(), warning.Warning{
		Class:        warning.ClassCompletion,
		FailureClass: "timeout",
		SessionID:    "abc",
		Detail:       "context deadline exceeded",
	})

	if len(conn.subjects) != 1 || conn.subjects[0] != "ops.warn.abc" {
		t.Fatalf("subjects = %v", conn.subjects)
	}

	var got warning.Warning
	if err := json.Unmarshal(conn.payloads[0], &got); err != nil {
		t.Fatal(err)
	}
	if got.FailureClass != "timeout" || got.Detail != "context deadline exceeded" {
		t.Errorf("payload = %+v", got)
	}
}

func TestPublisherSwallowsErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("connection closed")}
	p := NewPublisher(conn, "", logger.NewNop())

	p.Warn(context.Background(), warning.Warning{Class: warning.ClassMissingCredential})

	if conn.subjects[0] != DefaultSubjectPrefix+".system" {
		t.Errorf("subject = %q", conn.subjects[0])
	}
}

func TestWarningFilter(t *testing.T) {
	if got := WarningFilter(""); got != "medassist.warnings.>" {
		t.Errorf("filter = %q", got)
	}
}

// Package service provides the chat operations shared by the HTTP API and
// the terminal client.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/llm"
	"github.com/capitalize-ai/medassist/internal/locale"
	"github.com/capitalize-ai/medassist/internal/store"
	"github.com/capitalize-ai/medassist/internal/warning"
	"github.com/capitalize-ai/medassist/pkg/logger"
	"github.com/capitalize-ai/medassist/pkg/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConflict        = errors.New("session was modified concurrently")
	ErrPending         = conversation.ErrPending
)

const releaseAttempts = 3

// SendResult is the outcome of one submitted message.
type SendResult struct {
	// Reply is the assistant turn appended to the transcript.
	Reply   string
	Failure *llm.Failure
	Session *conversation.Session
}

// ConversationService handles session lifecycle and message exchange.
type ConversationService struct {
	store     store.Store
	packs     *locale.Registry
	completer llm.Completer
	warnings  warning.Sink
	variant   conversation.Variant
	logger    *logger.Logger
	now       func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(
	st store.Store,
	packs *locale.Registry,
	completer llm.Completer,
	warnings warning.Sink,
	variant conversation.Variant,
	log *logger.Logger,
) *ConversationService {
	if warnings == nil {
		warnings = warning.Nop{}
	}
	return &ConversationService{
		store:     st,
		packs:     packs,
		completer: completer,
		warnings:  warnings,
		variant:   variant,
		logger:    log,
		now:       time.Now,
	}
}

// Locales returns the language packs offered at the selection step.
func (s *ConversationService) Locales() *locale.Registry {
	return s.packs
}

// Variant returns the variant new sessions are created with.
func (s *ConversationService) Variant() conversation.Variant {
	return s.variant
}

// Create starts a new session.
func (s *ConversationService) Create(ctx context.Context) (*conversation.Session, error) {
	sess := conversation.New(uuid.Must(uuid.NewV7()).String(), s.variant, s.now())

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.SessionsTotal.WithLabelValues(string(s.variant)).Inc()
	s.logger.WithContext(ctx).Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("variant", string(s.variant)),
	)

	return sess, nil
}

// Get retrieves a session by ID.
func (s *ConversationService) Get(ctx context.Context, id string) (*conversation.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// End discards a session.
func (s *ConversationService) End(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.WithContext(ctx).Info("session ended", zap.String("session_id", id))
	return nil
}

// SelectLocale confirms a language choice and seeds the session.
func (s *ConversationService) SelectLocale(ctx context.Context, id, choice string) (*conversation.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectLocale(s.packs, choice); err != nil {
		return nil, err
	}
	if err := s.update(ctx, sess); err != nil {
		return nil, err
	}

	metrics.LanguageSelectionsTotal.WithLabelValues(sess.Locale).Inc()
	s.logger.WithContext(ctx).Info("language selected",
		zap.String("session_id", id),
		zap.String("locale", sess.Locale),
	)

	return sess, nil
}

// ChangeLocale returns an active session to the language screen.
func (s *ConversationService) ChangeLocale(ctx context.Context, id string) (*conversation.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.ChangeLocale(); err != nil {
		return nil, err
	}
	if err := s.update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Send appends text as an operator turn, makes one completion call with the
// full log and appends the reply or the localized failure text. A session
// has at most one outstanding call; a second Send fails with ErrPending.
func (s *ConversationService) Send(ctx context.Context, id, text string) (*SendResult, error) {
	log := s.logger.WithContext(ctx).With(zap.String("session_id", id))

	if text == "" {
		return nil, conversation.ErrEmptyText
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sess.BeginRequest(); err != nil {
		if errors.Is(err, ErrPending) {
			metrics.RejectedSendsTotal.Inc()
		}
		return nil, err
	}
	if err := sess.Append(conversation.SpeakerOperator, text); err != nil {
		return nil, err
	}
	if err := s.update(ctx, sess); err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.RejectedSendsTotal.Inc()
			return nil, ErrPending
		}
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(conversation.SpeakerOperator)).Inc()

	// The call runs to completion even if the caller goes away.
	detached := context.WithoutCancel(ctx)

	pack := sess.Pack(s.packs)
	result := s.completer.Complete(detached, &llm.CompletionRequest{
		Messages: sess.ChatMessages(),
		Texts:    pack.FailureTexts(),
	})

	if !result.OK() {
		s.warn(detached, sess.ID, result.Failure)
		log.Warn("completion failed",
			zap.String("failure_class", string(result.Failure.Class)),
			zap.String("detail", result.Failure.Detail),
		)
	} else {
		log.Debug("completion succeeded",
			zap.String("model", result.Model),
			zap.Int64("latency_ms", result.LatencyMs),
		)
	}

	reply := result.Display()
	claimed := len(sess.Log)
	if err := sess.Append(conversation.SpeakerAssistant, reply); err != nil {
		s.release(detached, id, claimed, "")
		return nil, err
	}
	sess.EndRequest()

	if err := s.update(detached, sess); err != nil {
		log.Error("failed to save reply", zap.Error(err))
		released, rerr := s.release(detached, id, claimed, reply)
		if rerr != nil {
			log.Error("failed to release pending request", zap.Error(rerr))
			return nil, err
		}
		sess = released
	}
	metrics.MessagesTotal.WithLabelValues(string(conversation.SpeakerAssistant)).Inc()

	return &SendResult{
		Reply:   reply,
		Failure: result.Failure,
		Session: sess,
	}, nil
}

// release clears the pending flag after the reply save failed. The stored
// session is reloaded; the reply is appended only if the log still ends with
// the claimed operator turn.
func (s *ConversationService) release(ctx context.Context, id string, claimed int, reply string) (*conversation.Session, error) {
	var err error
	for attempt := 0; attempt < releaseAttempts; attempt++ {
		var sess *conversation.Session
		sess, err = s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !sess.Pending {
			return sess, nil
		}
		if reply != "" && len(sess.Log) == claimed {
			sess.Append(conversation.SpeakerAssistant, reply)
		}
		sess.EndRequest()

		if err = s.update(ctx, sess); err == nil {
			return sess, nil
		}
	}
	return nil, err
}

func (s *ConversationService) update(ctx context.Context, sess *conversation.Session) error {
	err := s.store.Update(ctx, sess)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return ErrConflict
	default:
		return fmt.Errorf("failed to save session: %w", err)
	}
}

func (s *ConversationService) warn(ctx context.Context, sessionID string, f *llm.Failure) {
	metrics.WarningsTotal.WithLabelValues(string(f.Class)).Inc()

	detail := f.Detail
	if f.Err != nil {
		detail = fmt.Sprintf("%s: %v", f.Detail, f.Err)
	}

	s.warnings.Warn(ctx, warning.Warning{
		Class:         warning.ClassCompletion,
		FailureClass:  string(f.Class),
		SessionID:     sessionID,
		CorrelationID: logger.CorrelationID(ctx),
		Provider:      s.completer.Name(),
		StatusCode:    f.StatusCode,
		Detail:        detail,
		Time:          s.now(),
	})
}

// WarnMissingCredential emits the startup warning raised when no API key
// is configured. Sessions still run; every send answers with the
// missing-credential text.
func WarnMissingCredential(ctx context.Context, sink warning.Sink, provider string) {
	metrics.WarningsTotal.WithLabelValues(string(warning.ClassMissingCredential)).Inc()
	sink.Warn(ctx, warning.Warning{
		Class:    warning.ClassMissingCredential,
		Provider: provider,
		Detail:   "no API key configured; every message will be answered with the missing-credential notice",
		Time:     time.Now(),
	})
}

package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/capitalize-ai/medassist/internal/config"
	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/llm"
	"github.com/capitalize-ai/medassist/internal/locale"
	natsclient "github.com/capitalize-ai/medassist/internal/nats"
	"github.com/capitalize-ai/medassist/internal/service"
	"github.com/capitalize-ai/medassist/internal/store"
	"github.com/capitalize-ai/medassist/internal/warning"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

// app holds the wired dependencies shared by serve and chat.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    store.Store
	nats     *natsclient.Client
	warnings warning.Sink
	service  *service.ConversationService
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	variant, err := conversation.ParseVariant(cfg.ChatVariant)
	if err != nil {
		return nil, err
	}

	packs, err := locale.Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	if cfg.DefaultLocale != "" {
		if packs, err = packs.WithDefault(cfg.DefaultLocale); err != nil {
			return nil, err
		}
	}

	// Session store
	storeOpts := []store.Option{store.WithTTL(cfg.SessionTTL)}
	if cfg.SessionBackend == string(store.TypeRedis) {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		storeOpts = append(storeOpts, store.WithRedisClient(redis.NewClient(redisOpts)))
	}
	a.store, err = store.New(store.Type(cfg.SessionBackend), storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	// Operator warnings
	sinks := warning.Multi{warning.NewLogSink(log)}
	if cfg.NATSURL != "" {
		a.nats, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
			Name:     "medassist",
		}, log)
		if err != nil {
			a.close()
			return nil, err
		}
		if cfg.WarningStream {
			if err := a.nats.EnsureWarningStream(ctx, natsclient.StreamConfig{
				SubjectPrefix: cfg.WarningSubject,
				MaxAge:        cfg.WarningRetention,
			}); err != nil {
				log.Warn("failed to ensure warning stream", zap.Error(err))
			}
		}
		sinks = append(sinks, natsclient.NewPublisher(a.nats.Conn(), cfg.WarningSubject, log))
	}
	a.warnings = sinks

	// Completion client
	completer, err := llm.NewCompleter(cfg.LLMOptions())
	if err != nil {
		a.close()
		return nil, err
	}
	if cfg.APIKey() == "" {
		service.WarnMissingCredential(ctx, a.warnings, completer.Name())
	}

	a.service = service.NewConversationService(
		a.store,
		packs,
		llm.Instrument(completer, nil),
		a.warnings,
		variant,
		log,
	)

	return a, nil
}

func (a *app) close() {
	if a.nats != nil {
		a.nats.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("failed to close session store", zap.Error(err))
		}
	}
}

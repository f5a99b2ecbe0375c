package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/capitalize-ai/medassist/internal/conversation"
)

const keyPrefix = "medassist:session:"

// redisStore implements Store using Redis with optimistic locking.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func newRedisStore(o *options) *redisStore {
	return &redisStore{
		client: o.redisClient,
		ttl:    o.ttl,
		now:    o.now,
	}
}

// Create implements Store.
func (r *redisStore) Create(ctx context.Context, s *conversation.Session) error {
	now := r.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, key(s.ID), val, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Get implements Store. Every read refreshes the TTL.
func (r *redisStore) Get(ctx context.Context, id string) (*conversation.Session, error) {
	k := key(id)
	val, err := r.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s conversation.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	_ = r.client.Expire(ctx, k, r.ttl).Err()

	return &s, nil
}

// Update implements Store using WATCH/MULTI/EXEC.
func (r *redisStore) Update(ctx context.Context, s *conversation.Session) error {
	k := key(s.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored conversation.Session
		if err := json.Unmarshal(val, &stored); err != nil {
			return fmt.Errorf("failed to decode session %s: %w", s.ID, err)
		}
		if stored.Version != s.Version {
			return ErrVersionConflict
		}

		next := s.Clone()
		next.Version++
		next.UpdatedAt = r.now()

		newVal, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, newVal, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		s.Version = next.Version
		s.UpdatedAt = next.UpdatedAt
		return nil
	}, k)

	// Another writer touched the key between WATCH and EXEC.
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

// Delete implements Store.
func (r *redisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, key(id)).Err()
}

// Ping implements Store.
func (r *redisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements Store.
func (r *redisStore) Close() error {
	return r.client.Close()
}

func key(id string) string {
	return keyPrefix + id
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/capitalize-ai/medassist/internal/conversation"
)

type entry struct {
	session  *conversation.Session
	lastSeen time.Time
}

// memoryStore implements Store using an in-memory map with optimistic locking.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func newMemoryStore(o *options) *memoryStore {
	return &memoryStore{
		sessions: make(map[string]*entry),
		ttl:      o.ttl,
		now:      o.now,
	}
}

// Create implements Store.
func (m *memoryStore) Create(ctx context.Context, s *conversation.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.sessions[s.ID]; ok && !m.expired(e, now) {
		return ErrAlreadyExists
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	m.sessions[s.ID] = &entry{session: s.Clone(), lastSeen: now}
	return nil
}

// Get implements Store.
func (m *memoryStore) Get(ctx context.Context, id string) (*conversation.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(e, now) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}

	e.lastSeen = now
	return e.session.Clone(), nil
}

// Update implements Store.
func (m *memoryStore) Update(ctx context.Context, s *conversation.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.sessions[s.ID]
	if !ok || m.expired(e, now) {
		delete(m.sessions, s.ID)
		return ErrNotFound
	}

	if e.session.Version != s.Version {
		return ErrVersionConflict
	}

	s.Version++
	s.UpdatedAt = now

	e.session = s.Clone()
	e.lastSeen = now
	return nil
}

// Delete implements Store.
func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Ping implements Store.
func (m *memoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close implements Store.
func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*entry)
	return nil
}

func (m *memoryStore) expired(e *entry, now time.Time) bool {
	return now.Sub(e.lastSeen) > m.ttl
}

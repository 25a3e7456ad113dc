package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry struct {
	expiresAt time.Time
	touchedAt time.Time
	data      []byte
}

// MemoryStore keeps sessions in process memory.
// Sessions are stored encoded, so a read never aliases another request's values.
type MemoryStore struct {
	items  map[string]memoryEntry
	mu     sync.Mutex
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Read(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	e, ok := m.items[id]
	if ok && time.Now().After(e.expiresAt) {
		delete(m.items, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	s, err := decode(id, e.data)
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return s, nil
}

func (m *MemoryStore) Write(_ context.Context, s *Session, ttl time.Duration) error {
	data, err := encode(s)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items[s.ID] = memoryEntry{
		data:      data,
		touchedAt: now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// GC removes sessions that expired or were not written for maxLifetime.
func (m *MemoryStore) GC(_ context.Context, maxLifetime time.Duration) (int64, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, e := range m.items {
		if now.After(e.expiresAt) || (maxLifetime > 0 && now.Sub(e.touchedAt) > maxLifetime) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, including expired ones not yet collected.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close drops all sessions and rejects further writes.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = make(map[string]memoryEntry)
	return nil
}

package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// Session is the per-visitor state attached to a request.
// A session is request-local: it is not safe for concurrent use.
type Session struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	Values    map[string]any
	ID        string

	dirty bool
	isNew bool
}

// New creates an empty session that expires at expiresAt.
func New(id string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		Values:    make(map[string]any),
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
		isNew:     true,
		dirty:     true,
	}
}

// NewID returns a random URL-safe session identifier.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Set stores a value and marks the session as modified.
func (s *Session) Set(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// Delete removes key. The session is marked modified only if the key existed.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// Clear drops all values.
func (s *Session) Clear() {
	if len(s.Values) == 0 {
		return
	}
	s.Values = make(map[string]any)
	s.dirty = true
}

// IsDirty reports whether the session has unsaved changes.
func (s *Session) IsDirty() bool { return s.dirty }

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.isNew }

// MarkSaved clears the new and dirty flags after a successful write.
func (s *Session) MarkSaved() {
	s.dirty = false
	s.isNew = false
}

// Touch moves the expiry to now+ttl. The session is marked modified only once
// less than half of ttl was left, so steady traffic does not rewrite it on
// every request.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	if s.ExpiresAt.Sub(now) < ttl/2 {
		s.dirty = true
	}
	s.ExpiresAt = now.Add(ttl)
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Value returns the value under key converted to T.
// Values read back from a store are JSON-decoded, so numbers arrive as float64.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Join(ErrTypeMismatch, fmt.Errorf("key %q holds %T", key, v))
	}
	return typed, nil
}

// ValueOr is like Value but returns fallback on any error.
func ValueOr[T any](s *Session, key string, fallback T) T {
	v, err := Value[T](s, key)
	if err != nil {
		return fallback
	}
	return v
}

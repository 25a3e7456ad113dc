package session

import (
	"context"
	"encoding/json"
	"time"
)

// Store persists sessions between requests.
type Store interface {
	// Read loads the session with the given id.
	// It returns ErrNotFound for unknown or expired ids.
	Read(ctx context.Context, id string) (*Session, error)

	// Write persists s so that it expires after ttl.
	Write(ctx context.Context, s *Session, ttl time.Duration) error

	// Destroy removes the session. Unknown ids are not an error.
	Destroy(ctx context.Context, id string) error
}

// Collector is implemented by stores that need explicit removal of expired sessions.
type Collector interface {
	// GC deletes sessions idle for longer than maxLifetime and returns how many were removed.
	GC(ctx context.Context, maxLifetime time.Duration) (int64, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// record is the persisted form of a session.
type record struct {
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Values    map[string]any `json:"values"`
}

func encode(s *Session) ([]byte, error) {
	return json.Marshal(record{
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Values:    s.Values,
	})
}

func decode(id string, data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Values == nil {
		rec.Values = make(map[string]any)
	}
	return &Session{
		ID:        id,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
		Values:    rec.Values,
	}, nil
}

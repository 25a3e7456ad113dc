package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/pkg/session"
)

func TestNew(t *testing.T) {
	t.Parallel()

	expires := time.Now().Add(time.Hour)
	s := session.New("abc", expires)

	require.Equal(t, "abc", s.ID)
	require.Equal(t, expires, s.ExpiresAt)
	require.NotNil(t, s.Values)
	require.True(t, s.IsNew())
	require.True(t, s.IsDirty())
	require.False(t, s.IsExpired())
}

func TestNewID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		id, err := session.NewID()
		require.NoError(t, err)
		require.Len(t, id, 43)
		require.NotContains(t, seen, id)
		seen[id] = struct{}{}
	}
}

func TestSession_Values(t *testing.T) {
	t.Parallel()

	t.Run("set marks dirty", func(t *testing.T) {
		t.Parallel()

		s := session.New("id", time.Now().Add(time.Hour))
		s.MarkSaved()
		require.False(t, s.IsDirty())
		require.False(t, s.IsNew())

		s.Set("user", "alice")
		require.True(t, s.IsDirty())

		v, ok := s.Get("user")
		require.True(t, ok)
		require.Equal(t, "alice", v)
	})

	t.Run("delete of missing key keeps clean", func(t *testing.T) {
		t.Parallel()

		s := session.New("id", time.Now().Add(time.Hour))
		s.MarkSaved()
		s.Delete("missing")
		require.False(t, s.IsDirty())

		s.Set("k", 1)
		s.MarkSaved()
		s.Delete("k")
		require.True(t, s.IsDirty())
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		s := session.New("id", time.Now().Add(time.Hour))
		s.Set("a", 1)
		s.MarkSaved()
		s.Clear()
		require.True(t, s.IsDirty())
		require.Empty(t, s.Values)
	})

	t.Run("expiry", func(t *testing.T) {
		t.Parallel()

		s := session.New("id", time.Now().Add(-time.Second))
		require.True(t, s.IsExpired())
		s.Touch(time.Minute)
		require.False(t, s.IsExpired())
	})

	t.Run("touch marks modified only near expiry", func(t *testing.T) {
		t.Parallel()

		s := session.New("id", time.Now().Add(time.Hour))
		s.MarkSaved()
		s.Touch(time.Hour)
		require.False(t, s.IsDirty())

		s.ExpiresAt = time.Now().Add(10 * time.Minute)
		s.Touch(time.Hour)
		require.True(t, s.IsDirty())
		require.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Second)
	})
}

func TestValue(t *testing.T) {
	t.Parallel()

	s := session.New("id", time.Now().Add(time.Hour))
	s.Set("name", "alice")

	name, err := session.Value[string](s, "name")
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	_, err = session.Value[int](s, "name")
	require.ErrorIs(t, err, session.ErrTypeMismatch)

	_, err = session.Value[string](s, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	_, err = session.Value[string](nil, "name")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.Equal(t, 7, session.ValueOr(s, "missing", 7))
}

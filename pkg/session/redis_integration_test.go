//go:build integration

package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/pkg/session"
)

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := session.OpenRedis(ctx, url, session.WithRedisRetry(1, time.Second))
	require.NoError(t, err)

	store := session.NewRedisStore(client, session.WithKeyPrefix("test-session:"))
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))

	id, err := session.NewID()
	require.NoError(t, err)

	s := session.New(id, time.Now().Add(time.Minute))
	s.Set("user", "alice")
	require.NoError(t, store.Write(ctx, s, time.Minute))

	got, err := store.Read(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", session.ValueOr(got, "user", ""))

	require.NoError(t, store.Destroy(ctx, id))
	_, err = store.Read(ctx, id)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestOpenRedis_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := session.OpenRedis(context.Background(), "")
	require.ErrorIs(t, err, session.ErrEmptyURL)

	_, err = session.OpenRedis(context.Background(), "http://localhost")
	require.ErrorIs(t, err, session.ErrInvalidURL)
}

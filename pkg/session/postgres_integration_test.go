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

func TestPostgresStore_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg := session.DefaultPostgresConfig(url)
	cfg.RetryAttempts = 1
	pool, err := session.ConnectPostgres(ctx, cfg)
	require.NoError(t, err)

	store := session.NewPostgresStore(pool)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx, nil))
	require.NoError(t, store.Ping(ctx))

	id, err := session.NewID()
	require.NoError(t, err)

	s := session.New(id, time.Now().Add(time.Minute))
	s.Set("cart", []any{"apple", "pear"})
	require.NoError(t, store.Write(ctx, s, time.Minute))

	got, err := store.Read(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []any{"apple", "pear"}, got.Values["cart"])

	s.Set("cart", []any{})
	require.NoError(t, store.Write(ctx, s, time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err = store.Read(ctx, id)
	require.ErrorIs(t, err, session.ErrNotFound)

	n, err := store.GC(ctx, time.Hour)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, int64(1))
}

func TestConnectPostgres_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := session.ConnectPostgres(context.Background(), session.PostgresConfig{})
	require.ErrorIs(t, err, session.ErrEmptyURL)
}

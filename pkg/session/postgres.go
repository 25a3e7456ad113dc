package session

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// PostgresConfig holds connection parameters for ConnectPostgres.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	RetryAttempts   int
	RetryInterval   time.Duration
}

// DefaultPostgresConfig returns pool settings suitable for a session table.
func DefaultPostgresConfig(url string) PostgresConfig {
	return PostgresConfig{
		URL:             url,
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: 10 * time.Minute,
		RetryAttempts:   3,
		RetryInterval:   2 * time.Second,
	}
}

// ConnectPostgres opens a pgx pool and pings it, retrying on failure.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	for i := range max(cfg.RetryAttempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, ErrConnection
}

// PostgresStore keeps sessions in the "sessions" table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on top of an open pool.
// Call Migrate once before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates or upgrades the sessions table.
func (s *PostgresStore) Migrate(ctx context.Context, log *slog.Logger) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	db := stdlib.OpenDBFromPool(s.pool)
	goose.SetBaseFS(sub)
	goose.SetLogger(gooseLogger{log})
	goose.SetTableName("session_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, id string) (*Session, error) {
	var (
		data []byte
		sess = &Session{ID: id}
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, created_at, expires_at FROM sessions WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&data, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &sess.Values); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if sess.Values == nil {
		sess.Values = make(map[string]any)
	}
	return sess, nil
}

func (s *PostgresStore) Write(ctx context.Context, sess *Session, ttl time.Duration) error {
	values := sess.Values
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, data, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, now(), $4)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now(), expires_at = EXCLUDED.expires_at`,
		sess.ID, string(data), sess.CreatedAt, time.Now().Add(ttl),
	)
	return err
}

func (s *PostgresStore) Destroy(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// GC deletes expired sessions and those not written for maxLifetime.
func (s *PostgresStore) GC(ctx context.Context, maxLifetime time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxLifetime)
	if maxLifetime <= 0 {
		cutoff = time.Time{}
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= now() OR updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errors.Join(ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	if g.log != nil {
		g.log.Info(fmt.Sprintf(format, args...))
	}
}

func (g gooseLogger) Fatalf(format string, args ...any) {
	if g.log != nil {
		g.log.Error(fmt.Sprintf(format, args...))
	}
}

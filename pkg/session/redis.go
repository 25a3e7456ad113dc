package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RedisOption configures the connection opened by OpenRedis.
type RedisOption func(*redisOptions)

type redisOptions struct {
	poolSize      int
	minIdleConns  int
	retryAttempts int
	retryInterval time.Duration
	dialTimeout   time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		poolSize:      10,
		minIdleConns:  2,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		dialTimeout:   5 * time.Second,
		readTimeout:   3 * time.Second,
		writeTimeout:  3 * time.Second,
	}
}

// WithRedisPoolSize sets the maximum number of pooled connections.
// Default: 10
func WithRedisPoolSize(n int) RedisOption {
	return func(o *redisOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// WithRedisRetry sets how many times OpenRedis tries to connect and the base
// interval between attempts. The wait grows linearly with each attempt.
// Default: 3 attempts, 2 seconds.
func WithRedisRetry(attempts int, interval time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// OpenRedis connects to the server at url (redis:// or rediss://) and verifies
// the connection with PING, retrying on failure.
func OpenRedis(ctx context.Context, url string, opts ...RedisOption) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrInvalidURL
	}

	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	ro.PoolSize = o.poolSize
	ro.MinIdleConns = o.minIdleConns
	ro.DialTimeout = o.dialTimeout
	ro.ReadTimeout = o.readTimeout
	ro.WriteTimeout = o.writeTimeout

	for i := range max(o.retryAttempts, 1) {
		client := redis.NewClient(ro)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * o.retryInterval):
		}
	}
	return nil, ErrConnection
}

// RedisStore keeps sessions in Redis. Expiry is delegated to key TTLs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	reads  singleflight.Group
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the key prefix. Default: "session:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a store on top of an open client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "session:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read loads a session. Concurrent reads of the same id share one round trip;
// each caller still gets its own decoded copy.
func (s *RedisStore) Read(ctx context.Context, id string) (*Session, error) {
	v, err, _ := s.reads.Do(id, func() (any, error) {
		data, err := s.client.Get(ctx, s.prefix+id).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return data, err
	})
	if err != nil {
		return nil, err
	}

	sess, err := decode(id, v.([]byte))
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return sess, nil
}

func (s *RedisStore) Write(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := encode(sess)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err()
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

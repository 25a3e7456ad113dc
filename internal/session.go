package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/infuse/pkg/session"
)

const defaultSessionLifetime = 24 * time.Hour

// SessionConfig is the resolved session setup for one request.
type SessionConfig struct {
	Name     string
	Hostname string
	Driver   string
	Lifetime time.Duration
	Secure   bool
}

// SessionDriver opens the store for a session driver identifier.
type SessionDriver func(ctx context.Context, a *App) (session.Store, error)

var sessionNameReplacer = strings.NewReplacer(".", "", " ", "_", "'", "", `"`, "")

// SessionName derives the cookie name from the site title and hostname:
// "<title>-<hostname>" without dots and quotes, spaces turned into underscores.
// Any other byte that is not allowed in a cookie name is dropped.
func SessionName(title, hostname string) string {
	return strings.Map(func(r rune) rune {
		if isCookieNameRune(r) {
			return r
		}
		return -1
	}, sessionNameReplacer.Replace(title+"-"+hostname))
}

// isCookieNameRune reports whether r is an RFC 7230 token character.
func isCookieNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+-.^_`|~", r)
}

// SessionConfig resolves the session settings for req.
func (a *App) SessionConfig(req *Request) SessionConfig {
	lifetime := time.Duration(a.config.GetInt("sessions.lifetime")) * time.Second
	if lifetime <= 0 {
		lifetime = defaultSessionLifetime
	}
	hostname := a.config.GetString("site.hostname")
	return SessionConfig{
		Name:     SessionName(a.config.GetString("site.title"), hostname),
		Hostname: hostname,
		Driver:   a.config.GetString("sessions.driver"),
		Lifetime: lifetime,
		Secure:   req.IsSecure(),
	}
}

// sessionsActive reports whether req gets a session.
func (a *App) sessionsActive(req *Request) bool {
	return a.config.GetBool("sessions.enabled") && !req.IsAPI()
}

// StartSession loads or creates the session for req and attaches it.
// It returns the cookie to send, or nil when sessions are off for req.
// Unknown and expired ids silently start a new session; any other store
// failure is a *SessionStartError.
func (a *App) StartSession(req *Request) (*http.Cookie, error) {
	if !a.sessionsActive(req) {
		return nil, nil
	}
	cfg := a.SessionConfig(req)
	if a.sessions == nil {
		return nil, &SessionStartError{Driver: cfg.Driver, Err: ErrNoSessionStore}
	}

	ctx := req.Context()
	var sess *session.Session
	if id, err := req.Cookie(cfg.Name); err == nil && id != "" {
		s, err := a.sessions.Read(ctx, id)
		switch {
		case err == nil:
			sess = s
		case errors.Is(err, session.ErrNotFound):
		default:
			return nil, &SessionStartError{Driver: cfg.Driver, Err: err}
		}
	}

	if sess == nil {
		id, err := session.NewID()
		if err != nil {
			return nil, &SessionStartError{Driver: cfg.Driver, Err: err}
		}
		sess = session.New(id, time.Now().Add(cfg.Lifetime))
	} else {
		sess.Touch(cfg.Lifetime)
	}

	if err := req.SetSession(sess); err != nil {
		return nil, &SessionStartError{Driver: cfg.Driver, Err: err}
	}

	return &http.Cookie{
		Name:     cfg.Name,
		Value:    sess.ID,
		Path:     "/",
		Domain:   cfg.Hostname,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(cfg.Lifetime / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// saveSession writes the attached session back when it is new or was
// modified. Failures are logged; the response has already been produced.
func (a *App) saveSession(req *Request) {
	sess := req.Session()
	if sess == nil || a.sessions == nil {
		return
	}
	if !sess.IsNew() && !sess.IsDirty() {
		return
	}
	cfg := a.SessionConfig(req)
	ctx := context.WithoutCancel(req.Context())
	if err := a.sessions.Write(ctx, sess, cfg.Lifetime); err != nil {
		a.logger.ErrorContext(ctx, "failed to save session",
			slog.String("driver", cfg.Driver),
			slog.String("error", err.Error()),
		)
		return
	}
	sess.MarkSaved()
}

func memoryDriver(context.Context, *App) (session.Store, error) {
	return session.NewMemoryStore(), nil
}

func redisDriver(ctx context.Context, a *App) (session.Store, error) {
	client, err := session.OpenRedis(ctx, a.config.GetString("sessions.redis-url"))
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(client, session.WithKeyPrefix(a.config.GetString("sessions.prefix"))), nil
}

func postgresDriver(ctx context.Context, a *App) (session.Store, error) {
	pool, err := session.ConnectPostgres(ctx, session.DefaultPostgresConfig(a.config.GetString("sessions.database-url")))
	if err != nil {
		return nil, err
	}
	store := session.NewPostgresStore(pool)
	if err := store.Migrate(ctx, a.logger); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

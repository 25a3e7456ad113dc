package internal

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/infuse/pkg/session"
)

const (
	defaultHealthTimeout = 5 * time.Second
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

type healthConfig struct {
	checks        map[string]CheckFunc
	livenessPath  string
	readinessPath string
	timeout       time.Duration
}

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets the liveness endpoint path. Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets the readiness endpoint path. Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check. Checks run in parallel.
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if name != "" && fn != nil {
			c.checks[name] = fn
		}
	}
}

// WithHealthTimeout bounds a whole readiness probe. Defaults to 5 seconds.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

type healthResponse struct {
	Checks map[string]healthCheck `json:"checks,omitempty"`
	Status string                 `json:"status"`
}

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// registerHealth mounts the liveness and readiness endpoints. A session store
// that can be pinged becomes the "sessions" readiness check.
func (a *App) registerHealth() {
	cfg := a.health
	if cfg == nil {
		return
	}
	if p, ok := a.sessions.(session.Pinger); ok {
		if _, taken := cfg.checks["sessions"]; !taken {
			cfg.checks["sessions"] = p.Ping
		}
	}
	a.router.GET(cfg.livenessPath, livenessHandler)
	a.router.GET(cfg.readinessPath, a.readinessHandler(cfg))
}

func livenessHandler(req *Request, res *Response) error {
	if wantsJSON(req) {
		return res.JSON(http.StatusOK, &healthResponse{Status: statusHealthy})
	}
	res.Text(http.StatusOK, "OK")
	return nil
}

func (a *App) readinessHandler(cfg *healthConfig) HandlerFunc {
	return func(req *Request, res *Response) error {
		resp := runChecks(req.Context(), cfg.checks, cfg.timeout, a.logger)

		status := http.StatusOK
		if resp.Status == statusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		if wantsJSON(req) {
			return res.JSON(status, resp)
		}
		res.Text(status, http.StatusText(status))
		return nil
	}
}

// runChecks executes all checks in parallel and aggregates the result.
func runChecks(ctx context.Context, checks map[string]CheckFunc, timeout time.Duration, log *slog.Logger) *healthResponse {
	if len(checks) == 0 {
		return &healthResponse{Status: statusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]healthCheck, len(checks))
		failed  bool
	)
	for name, check := range checks {
		wg.Go(func() {
			result := healthCheck{Status: statusHealthy}
			if err := check(ctx); err != nil {
				result = healthCheck{Status: statusUnhealthy, Error: err.Error()}
				log.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
			mu.Lock()
			results[name] = result
			failed = failed || result.Status == statusUnhealthy
			mu.Unlock()
		})
	}
	wg.Wait()

	status := statusHealthy
	if failed {
		status = statusUnhealthy
	}
	return &healthResponse{Status: status, Checks: results}
}

func wantsJSON(req *Request) bool {
	return req.Query("format") == "json" || req.IsJSON()
}

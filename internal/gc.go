package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/infuse/pkg/session"
)

// sessionGC removes expired sessions on a cron schedule.
type sessionGC struct {
	cron *cron.Cron
}

// newSessionGC schedules garbage collection for stores that need it. It
// returns nil when sessions are off, the store collects on its own, or
// sessions.gc-schedule is empty.
func (a *App) newSessionGC(log *slog.Logger) (*sessionGC, error) {
	collector, ok := a.sessions.(session.Collector)
	if !ok {
		return nil, nil
	}
	schedule := a.config.GetString("sessions.gc-schedule")
	if schedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		lifetime := time.Duration(a.config.GetInt("sessions.lifetime")) * time.Second
		if lifetime <= 0 {
			lifetime = defaultSessionLifetime
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := collector.GC(ctx, lifetime)
		if err != nil {
			log.ErrorContext(ctx, "session gc failed", slog.String("error", err.Error()))
			return
		}
		if n > 0 {
			log.DebugContext(ctx, "session gc", slog.Int64("removed", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sessions.gc-schedule %q: %w", schedule, err)
	}
	return &sessionGC{cron: c}, nil
}

func (g *sessionGC) Start(context.Context) error {
	g.cron.Start()
	return nil
}

// Stop waits for a running collection to finish, or for ctx to end.
func (g *sessionGC) Stop(ctx context.Context) error {
	select {
	case <-g.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package core

// scheduler.go runs the import session janitor. Previewed sessions that are
// never confirmed or discarded would otherwise keep their parsed file in
// memory for the life of the process.

import (
	"context"
	"time"
)

// JanitorConfig controls StartSessionJanitor. Zero values use defaults.
type JanitorConfig struct {
	TTL           time.Duration // idle time before a previewed session is dropped (default: 30m)
	CheckInterval time.Duration // how often to sweep (default: TTL/4, at least 1m)
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = max(c.TTL/4, time.Minute)
	}
	return c
}

// StartSessionJanitor blocks, sweeping stale import sessions every
// CheckInterval until ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartSessionJanitor(ctx context.Context, cfg JanitorConfig) {
	cfg = cfg.withDefaults()
	s.logger.Info("import session janitor started",
		"ttl", cfg.TTL,
		"interval", cfg.CheckInterval,
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("import session janitor stopped")
			return
		case <-ticker.C:
			if n := s.ExpireImports(cfg.TTL); n > 0 {
				s.logger.Info("expired import sessions", "count", n)
			}
		}
	}
}

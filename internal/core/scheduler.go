package core

// scheduler.go runs background maintenance for the Service.
//
// The session janitor runs periodically to:
//  1. Evict sessions idle longer than the configured timeout
//  2. Purge audit entries older than the retention period
//
// It is long-running and context-aware for graceful shutdown. Failures are
// logged and never stop the loop.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig holds configuration for the session janitor.
// All fields have sensible defaults if zero values are provided.
type JanitorConfig struct {
	SweepInterval  time.Duration // How often to run (default: 5m)
	AuditRetention time.Duration // Age after which audit entries are purged (default: 30 days, <0 disables)
}

const (
	defaultSweepInterval  = 5 * time.Minute
	defaultAuditRetention = 30 * 24 * time.Hour
)

// StartSessionJanitor evicts idle sessions and purges old audit entries
// every SweepInterval until ctx is cancelled. It blocks; run it in a goroutine.
func (s *Service) StartSessionJanitor(ctx context.Context, cfg JanitorConfig) {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.AuditRetention == 0 {
		cfg.AuditRetention = defaultAuditRetention
	}
	slog.Info("session janitor started",
		"sweep_interval", cfg.SweepInterval,
		"idle_timeout", s.cfg.IdleTimeout,
		"audit_retention", cfg.AuditRetention,
	)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.runJanitor(ctx, cfg)
		}
	}
}

// runJanitor performs one eviction + purge cycle.
func (s *Service) runJanitor(ctx context.Context, cfg JanitorConfig) {
	start := time.Now()

	if evicted := s.EvictIdle(ctx); evicted > 0 {
		slog.Info("evicted idle sessions",
			"sessions_evicted", evicted,
			"sessions_active", s.SessionCount(),
		)
	}

	if cfg.AuditRetention > 0 {
		purged, err := s.audit.Purge(ctx, s.now().Add(-cfg.AuditRetention))
		if err != nil {
			slog.Error("audit purge failed", "error", err)
		} else if purged > 0 {
			slog.Info("purged audit entries", "entries_purged", purged)
		}
	}

	slog.Debug("janitor run completed", "duration_ms", time.Since(start).Milliseconds())
}

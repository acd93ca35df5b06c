package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/eda/internal/config"
	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/database"
	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/metric"
	"github.com/JonMunkholm/eda/internal/table"
	"github.com/JonMunkholm/eda/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_sessions", cfg.Session.MaxSessions,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_database", cfg.Audit.UsesDatabase(),
	)

	ctx := context.Background()

	// The audit trail lives in PostgreSQL when configured, otherwise in memory.
	var audit core.AuditStore
	if cfg.Audit.UsesDatabase() {
		pool, err := database.Connect(ctx, database.PoolConfig{
			URL:             cfg.Audit.DatabaseURL,
			MaxConns:        cfg.Audit.MaxConns,
			MinConns:        cfg.Audit.MinConns,
			MaxConnLifetime: cfg.Audit.MaxConnLifetime,
			MaxConnIdleTime: cfg.Audit.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "name", database.Name(cfg.Audit.DatabaseURL))

		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to migrate audit schema", "error", err)
			os.Exit(1)
		}
		audit = database.NewAuditStore(pool)
	} else {
		audit = core.NewMemoryAuditStore(cfg.Audit.MemoryCapacity)
	}

	service := core.NewService(core.ServiceConfig{
		MaxSessions:        cfg.Session.MaxSessions,
		IdleTimeout:        cfg.Session.IdleTimeout,
		MaxFileSize:        cfg.Upload.MaxFileSize,
		MaxConcurrentLoads: cfg.Upload.MaxConcurrent,
		MaxLoadWait:        cfg.Upload.MaxWaitTime,
		Load: table.LoadOptions{
			Delimiter: cfg.Upload.DelimiterRune(),
			MaxRows:   cfg.Upload.MaxRows,
		},
		Metric: metric.Limits{
			MaxSource:     cfg.Metric.MaxSource,
			MaxStatements: cfg.Metric.MaxStatements,
		},
		Audit: audit,
	})

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionJanitor(jobCtx, core.JanitorConfig{
		SweepInterval:  cfg.Session.SweepInterval,
		AuditRetention: cfg.Audit.Retention(),
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for loads to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				slog.Warn("loads did not complete in time", "error", err)
			} else {
				slog.Info("all loads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

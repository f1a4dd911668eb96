package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maryuh24/lashesstudio/internal/appointment"
	"github.com/maryuh24/lashesstudio/internal/config"
	"github.com/maryuh24/lashesstudio/internal/db"
	"github.com/maryuh24/lashesstudio/internal/metrics"
	redisclient "github.com/maryuh24/lashesstudio/internal/redis"
	"github.com/maryuh24/lashesstudio/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", "lapse-worker", "env", cfg.Env)
	logger.Info("lapse-worker starting up", "interval", cfg.WorkerInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg)
	if err != nil {
		logger.Error("redis connection error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL),
		cfg,
		appointment.WithLogger(logger),
		appointment.WithMetrics(metrics.NewBookingMetrics(nil)),
	)

	// Run once at startup
	runOnce(rootCtx, logger, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping lapse worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, logger, svc)
		}
	}
}

func runOnce(ctx context.Context, logger *logging.Logger, svc *appointment.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.LapsePendingAppointments(runCtx)
	if err != nil {
		logger.Error("lapse run error", "error", err)
		return
	}
	logger.Info("lapse run complete", "lapsed", n, "duration_ms", time.Since(start).Milliseconds())
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/calsync/internal/bus"
	"github.com/carebridge/calsync/internal/cache"
	"github.com/carebridge/calsync/internal/calendar"
	"github.com/carebridge/calsync/internal/config"
	"github.com/carebridge/calsync/internal/db"
	"github.com/carebridge/calsync/internal/provider"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "sync-worker").Logger()
	log.Info().Msg("sync-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("running sync worker")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	localCache := cache.New(rdb)
	locker := cache.NewEventLocker(rdb, cfg.LockTTL)
	repo := calendar.NewPgRepository(pgPool)
	conn := provider.NewConnectionManager(localCache, cfg.GoogleClientID, cfg.GoogleClientSecret)
	svc := calendar.NewService(repo, conn, locker, bus.New(), cfg, log)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.WorkerBatchSize, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping sync worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.WorkerBatchSize, log)
		}
	}
}

func runOnce(ctx context.Context, svc *calendar.Service, batchSize int, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	synced, err := svc.SyncPending(runCtx, batchSize)
	if err != nil {
		log.Error().Err(err).Msg("sync run error")
		return
	}
	log.Info().Int("synced", synced).Dur("elapsed", time.Since(start)).Msg("sync run complete")
}

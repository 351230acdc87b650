package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/calsync/internal/api"
	"github.com/carebridge/calsync/internal/bus"
	"github.com/carebridge/calsync/internal/cache"
	"github.com/carebridge/calsync/internal/calendar"
	"github.com/carebridge/calsync/internal/config"
	"github.com/carebridge/calsync/internal/db"
	"github.com/carebridge/calsync/internal/provider"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

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

	// Connect Redis
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
	notifications := bus.New()

	svc := calendar.NewService(repo, conn, locker, notifications, cfg, log)

	registry := calendar.NewStoreRegistry(func(viewer calendar.Actor) *calendar.Store {
		return calendar.NewStore(repo, localCache, viewer, calendar.StoreConfig{
			MinInterval: cfg.FetchMinInterval,
			WindowPast:  cfg.FetchWindowPast,
			WindowAhead: cfg.FetchWindowAhead,
		}, log)
	})

	coordinator := calendar.NewRefreshCoordinator(calendar.RefreshConfig{
		Debounce:   cfg.DebounceWindow,
		MinGap:     cfg.MinRefreshGap,
		Periodic:   cfg.PeriodicRefresh,
		RecentSkip: cfg.RecentRefreshSkip,
	}, registry.RefreshAll, log)
	defer coordinator.Close()

	// Every calendar change funnels through the coordinator's debounce.
	notifications.Subscribe(bus.TopicCalendarUpdated, func(bus.Notification) {
		coordinator.Request()
	})

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Registry: registry,
		Conn:     conn,
		PgPool:   pgPool,
		Redis:    rdb,
		Env:      cfg.Env,
		Version:  version,
		Logger:   log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	log.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
}

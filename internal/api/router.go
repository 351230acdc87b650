package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carebridge/calsync/internal/calendar"
	"github.com/carebridge/calsync/internal/provider"
)

type RouterConfig struct {
	Service  *calendar.Service
	Registry *calendar.StoreRegistry
	Conn     *provider.ConnectionManager
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
	Logger   zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Event operations
	r.Post("/events", createEventHandler(cfg.Service))
	r.Put("/events/{id}", updateEventHandler(cfg.Service))
	r.Delete("/events/{id}", deleteEventHandler(cfg.Service))

	// Event reads and calendar views
	r.Get("/events", listEventsHandler(cfg.Registry))
	r.Get("/events/upcoming", upcomingHandler(cfg.Registry))
	r.Get("/views/day", dayViewHandler(cfg.Registry))
	r.Get("/views/week", weekViewHandler(cfg.Registry))
	r.Get("/views/month", monthViewHandler(cfg.Registry))

	// Remote calendar link
	r.Get("/calendar/auth-url", authURLHandler(cfg.Conn))
	r.Post("/calendar/connect", connectHandler(cfg.Conn))
	r.Post("/calendar/disconnect", disconnectHandler(cfg.Conn))
	r.Get("/calendar/status", connectionStatusHandler(cfg.Conn))

	return r
}

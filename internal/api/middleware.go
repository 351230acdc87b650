package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/calsync/internal/calendar"
)

type contextKey string

const requestIDKey contextKey = "request_id"

var errMissingActor = errors.New("actor headers are required")

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs each request with method, path, status, duration,
// and request ID.
func LoggingMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.Info().
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// actorFromRequest reads the authenticated principal from the trusted
// gateway headers. Authentication itself happens upstream; this service
// only consumes the identity it is handed.
func actorFromRequest(r *http.Request) (calendar.Actor, error) {
	idStr := r.Header.Get("X-Actor-ID")
	role := r.Header.Get("X-Actor-Role")
	if idStr == "" || role == "" {
		return calendar.Actor{}, errMissingActor
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return calendar.Actor{}, errors.New("X-Actor-ID must be a valid UUID")
	}

	switch calendar.Role(role) {
	case calendar.RolePatient, calendar.RoleClinician, calendar.RoleAdmin:
	default:
		return calendar.Actor{}, errors.New("X-Actor-Role must be patient, clinician, or admin")
	}

	return calendar.Actor{
		ID:   id,
		Name: r.Header.Get("X-Actor-Name"),
		Role: calendar.Role(role),
	}, nil
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebridge/calsync/internal/calendar"
	"github.com/carebridge/calsync/internal/provider"
)

// Event mutations

func createEventHandler(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing_actor", err.Error())
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		event, outcome, err := svc.CreateEvent(r.Context(), actor, fromEventRequest(req))
		if err != nil {
			handleMutationError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, MutationResponse{
			Event:   toEventResponse(event),
			Outcome: toOutcomeResponse(outcome),
		})
	}
}

func updateEventHandler(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing_actor", err.Error())
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event_id", "id must be a valid UUID")
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		input := fromEventRequest(req)
		input.ID = id

		event, outcome, err := svc.UpdateEvent(r.Context(), actor, input)
		if err != nil {
			handleMutationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MutationResponse{
			Event:   toEventResponse(event),
			Outcome: toOutcomeResponse(outcome),
		})
	}
}

func deleteEventHandler(svc *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing_actor", err.Error())
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event_id", "id must be a valid UUID")
			return
		}

		outcome, err := svc.DeleteEvent(r.Context(), actor, id)
		if err != nil {
			handleMutationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MutationResponse{Outcome: toOutcomeResponse(outcome)})
	}
}

// Event reads via the viewer's store

func viewerStore(registry *calendar.StoreRegistry, w http.ResponseWriter, r *http.Request) (*calendar.Store, bool) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing_actor", err.Error())
		return nil, false
	}
	store := registry.For(actor)
	// A skipped fetch serves the held list; staleness is flagged below.
	_, _ = store.Fetch(r.Context())
	if store.Err() != nil {
		w.Header().Set("X-Calendar-Stale", "true")
	}
	return store, true
}

func listEventsHandler(registry *calendar.StoreRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := viewerStore(registry, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toEventResponses(store.Events()))
	}
}

func upcomingHandler(registry *calendar.StoreRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := viewerStore(registry, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toUpcomingResponses(store.Upcoming()))
	}
}

func parseDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func dayViewHandler(registry *calendar.StoreRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := viewerStore(registry, w, r)
		if !ok {
			return
		}

		date, err := parseDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		events := store.Events()
		if hourStr := r.URL.Query().Get("hour"); hourStr != "" {
			hour, err := strconv.Atoi(hourStr)
			if err != nil || hour < 0 || hour > 23 {
				writeError(w, http.StatusBadRequest, "invalid_hour", "hour must be 0-23")
				return
			}
			writeJSON(w, http.StatusOK, toEventResponses(calendar.EventsForHour(events, date, hour)))
			return
		}

		writeJSON(w, http.StatusOK, toEventResponses(calendar.EventsForDate(events, date)))
	}
}

type weekDayResponse struct {
	Date   string           `json:"date"`
	Events []*EventResponse `json:"events"`
}

func weekViewHandler(registry *calendar.StoreRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := viewerStore(registry, w, r)
		if !ok {
			return
		}

		date, err := parseDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		events := store.Events()
		days := calendar.WeekDays(date)
		resp := make([]weekDayResponse, 0, len(days))
		for _, day := range days {
			resp = append(resp, weekDayResponse{
				Date:   day.Format("2006-01-02"),
				Events: toEventResponses(calendar.EventsForDate(events, day)),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type monthDayResponse struct {
	Available int `json:"available"`
	Booked    int `json:"booked"`
}

func monthViewHandler(registry *calendar.StoreRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := viewerStore(registry, w, r)
		if !ok {
			return
		}

		date, err := parseDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		summary := calendar.MonthSummary(store.Events(), date)
		resp := make(map[int]monthDayResponse, len(summary))
		for day, counts := range summary {
			resp[day] = monthDayResponse{Available: counts.Available, Booked: counts.Booked}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Provider connection

func authURLHandler(conn *provider.ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"auth_url": conn.AuthCodeURL()})
	}
}

func connectHandler(conn *provider.ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, "missing_code", "authorization code is required")
			return
		}

		if err := conn.Connect(r.Context(), req.Code, req.CalendarID, req.PublicCalendarURL); err != nil {
			writeError(w, http.StatusBadGateway, "connect_failed", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ConnectionStatusResponse{
			Authorized:        true,
			PublicCalendarURL: req.PublicCalendarURL,
			CalendarID:        req.CalendarID,
		})
	}
}

func disconnectHandler(conn *provider.ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := conn.Disconnect(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "disconnect_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ConnectionStatusResponse{Authorized: false})
	}
}

func connectionStatusHandler(conn *provider.ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := conn.Status(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "status_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ConnectionStatusResponse{
			Authorized:        st.Authorized,
			PublicCalendarURL: st.PublicCalendarURL,
			CalendarID:        st.CalendarID,
		})
	}
}

func handleMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrMissingTimes),
		errors.Is(err, calendar.ErrEndBeforeStart),
		errors.Is(err, calendar.ErrMissingTitle),
		errors.Is(err, calendar.ErrDurationTooLong):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, calendar.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, calendar.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found", err.Error())
	case errors.Is(err, calendar.ErrStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

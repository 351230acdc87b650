package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/calsync/internal/calendar"
)

type EventRequest struct {
	Title       string     `json:"title"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	AllDay      bool       `json:"all_day"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
	PatientName string     `json:"patient_name,omitempty"`
	DoctorID    *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName  string     `json:"doctor_name,omitempty"`
	Type        string     `json:"type,omitempty"`
	Status      string     `json:"status,omitempty"`
	IsAvailable bool       `json:"is_available,omitempty"`
}

type EventResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	AllDay      bool       `json:"all_day"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
	PatientName string     `json:"patient_name,omitempty"`
	DoctorID    *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName  string     `json:"doctor_name,omitempty"`
	Type        string     `json:"type,omitempty"`
	Status      string     `json:"status"`
	Color       string     `json:"color"`
	IsAvailable bool       `json:"is_available"`
	Synced      bool       `json:"synced"`
}

// OutcomeResponse distinguishes full success from degraded success where
// the event was saved locally but the remote calendar was not updated.
type OutcomeResponse struct {
	State  string `json:"state"` // synced | local_only
	Reason string `json:"reason,omitempty"`
}

type MutationResponse struct {
	Event   *EventResponse  `json:"event,omitempty"`
	Outcome OutcomeResponse `json:"outcome"`
}

type UpcomingResponse struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Date    string    `json:"date"`
	Time    string    `json:"time"`
	EndTime string    `json:"end_time"`
	Doctor  string    `json:"doctor,omitempty"`
	Status  string    `json:"status"`
}

type ConnectRequest struct {
	Code              string `json:"code"`
	CalendarID        string `json:"calendar_id,omitempty"`
	PublicCalendarURL string `json:"public_calendar_url,omitempty"`
}

type ConnectionStatusResponse struct {
	Authorized        bool   `json:"authorized"`
	PublicCalendarURL string `json:"public_calendar_url,omitempty"`
	CalendarID        string `json:"calendar_id,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toEventResponse(e *calendar.Event) *EventResponse {
	return &EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Start:       e.Start,
		End:         e.End,
		AllDay:      e.AllDay,
		Description: e.Description,
		Location:    e.Location,
		Notes:       e.Notes,
		PatientID:   e.PatientID,
		PatientName: e.PatientName,
		DoctorID:    e.DoctorID,
		DoctorName:  e.DoctorName,
		Type:        e.Type,
		Status:      string(e.Status),
		Color:       e.Color(),
		IsAvailable: e.IsAvailable,
		Synced:      e.Synced,
	}
}

func toEventResponses(events []calendar.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	return out
}

func toOutcomeResponse(o calendar.Outcome) OutcomeResponse {
	return OutcomeResponse{State: string(o.State), Reason: o.Reason}
}

func toUpcomingResponses(list []calendar.UpcomingAppointment) []UpcomingResponse {
	out := make([]UpcomingResponse, 0, len(list))
	for _, u := range list {
		out = append(out, UpcomingResponse{
			ID:      u.ID,
			Title:   u.Title,
			Date:    u.Date,
			Time:    u.Time,
			EndTime: u.EndTime,
			Doctor:  u.Doctor,
			Status:  string(u.Status),
		})
	}
	return out
}

func fromEventRequest(req EventRequest) calendar.Event {
	return calendar.Event{
		Title:       req.Title,
		Start:       req.Start,
		End:         req.End,
		AllDay:      req.AllDay,
		Description: req.Description,
		Location:    req.Location,
		Notes:       req.Notes,
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		DoctorID:    req.DoctorID,
		DoctorName:  req.DoctorName,
		Type:        req.Type,
		Status:      calendar.EventStatus(req.Status),
		IsAvailable: req.IsAvailable,
	}
}

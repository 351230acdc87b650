package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusConfirmed EventStatus = "confirmed"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// CanTransition reports whether a status change is allowed.
// completed and cancelled are terminal.
func CanTransition(from, to EventStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusScheduled:
		return to == StatusConfirmed || to == StatusCompleted || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
	RoleAdmin     Role = "admin"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role Role
}

type Event struct {
	ID          uuid.UUID
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Description string
	Location    string
	Notes       string
	PatientID   *uuid.UUID
	PatientName string
	DoctorID    *uuid.UUID
	DoctorName  string
	Type        string
	Status      EventStatus
	IsAvailable bool
	RemoteID    string
	Synced      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Color is derived from the event type and never stored.
func (e *Event) Color() string {
	return ColorForType(e.Type)
}

// ColorForType maps a free-text event category to a display color.
func ColorForType(eventType string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "consultation":
		return "#4285F4"
	case "follow-up", "followup":
		return "#34A853"
	case "physiotherapy", "physio":
		return "#FBBC05"
	case "surgery":
		return "#EA4335"
	case "assessment":
		return "#9C27B0"
	case "lab", "imaging":
		return "#00ACC1"
	default:
		return "#607D8B"
	}
}

// OwnedBy reports whether the event belongs to the given patient.
// The patient id is authoritative; name containment is a best-effort
// fallback for events recorded without an id and can over-match when
// two patients share a name substring.
func (e *Event) OwnedBy(patientID uuid.UUID, patientName string) bool {
	if e.PatientID != nil {
		return *e.PatientID == patientID
	}
	if patientName == "" || e.PatientName == "" {
		return false
	}
	return strings.Contains(
		strings.ToLower(e.PatientName),
		strings.ToLower(patientName),
	)
}

// UpcomingAppointment is a read-only list projection of an Event.
type UpcomingAppointment struct {
	ID      uuid.UUID
	Title   string
	Date    string
	Time    string
	EndTime string
	Doctor  string
	Status  EventStatus
}

// UpcomingFrom builds the upcoming-appointments projection: future booked
// events, sorted ascending by start, formatted for list display.
func UpcomingFrom(events []Event, now time.Time) []UpcomingAppointment {
	var future []Event
	for _, e := range events {
		if e.IsAvailable || e.End.Before(now) || e.Status == StatusCancelled {
			continue
		}
		future = append(future, e)
	}
	sort.Slice(future, func(i, j int) bool {
		return future[i].Start.Before(future[j].Start)
	})

	out := make([]UpcomingAppointment, 0, len(future))
	for _, e := range future {
		out = append(out, UpcomingAppointment{
			ID:      e.ID,
			Title:   e.Title,
			Date:    e.Start.Format("2006-01-02"),
			Time:    e.Start.Format("15:04"),
			EndTime: e.End.Format("15:04"),
			Doctor:  e.DoctorName,
			Status:  e.Status,
		})
	}
	return out
}

// Package provider abstracts the remote calendar the service mirrors
// events into. The core only needs fallible create/update/delete/list;
// everything provider-specific stays behind this interface.
package provider

import (
	"context"
	"errors"
	"time"
)

var ErrNotConnected = errors.New("calendar provider is not connected")

// RemoteEvent is the wire-level view of an event as the provider sees it.
type RemoteEvent struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Status      string // confirmed, tentative, cancelled
	Attendees   []string
}

type Provider interface {
	CreateEvent(ctx context.Context, calendarID string, ev *RemoteEvent) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev *RemoteEvent) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*RemoteEvent, error)
}

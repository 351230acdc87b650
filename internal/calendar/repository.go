package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEventNotFound = errors.New("event not found")

// Repository contains all DB interactions needed by the service. The
// database is the source of truth for events; the remote provider is a
// mirror that may lag behind it.
type Repository interface {
	GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)

	InsertEvent(ctx context.Context, e *Event) error
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Sync bookkeeping
	MarkSynced(ctx context.Context, id uuid.UUID, remoteID string) error
	ListUnsynced(ctx context.Context, limit int) ([]Event, error)
}

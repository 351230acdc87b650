package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/calsync/internal/bus"
	"github.com/carebridge/calsync/internal/cache"
	"github.com/carebridge/calsync/internal/config"
	"github.com/carebridge/calsync/internal/provider"
)

var (
	ErrAccessDenied     = errors.New("actor is not allowed to modify this event")
	ErrStatusTransition = errors.New("invalid event status transition")
)

// SyncState tags the remote half of an operation outcome. The local
// mutation always wins: a failed or skipped sync degrades the outcome,
// it never fails the operation.
type SyncState string

const (
	SyncStateSynced    SyncState = "synced"
	SyncStateLocalOnly SyncState = "local_only"
)

// Outcome is the tagged result of an event operation's remote sync.
type Outcome struct {
	State  SyncState
	Reason string // set when State is local_only
}

func syncedOutcome() Outcome {
	return Outcome{State: SyncStateSynced}
}

func localOnly(reason string) Outcome {
	return Outcome{State: SyncStateLocalOnly, Reason: reason}
}

// ProviderSource yields the currently linked remote calendar, or
// provider.ErrNotConnected when the user has not authorized one.
type ProviderSource interface {
	Build(ctx context.Context) (provider.Provider, string, error)
}

// Publisher is the notification fan-out the service emits domain events on.
type Publisher interface {
	Publish(topic string, payload any)
}

type Service struct {
	repo      Repository
	providers ProviderSource
	locker    cache.Locker
	publisher Publisher
	cfg       config.Config
	log       zerolog.Logger
}

func NewService(repo Repository, providers ProviderSource, locker cache.Locker, publisher Publisher, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		locker:    locker,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// CreateEvent validates and stores a new event, then mirrors it to the
// remote provider with bounded retries. A patient actor is always recorded
// as the appointment's patient regardless of the submitted fields.
func (s *Service) CreateEvent(ctx context.Context, actor Actor, input Event) (*Event, Outcome, error) {
	if err := s.validate(&input); err != nil {
		return nil, Outcome{}, err
	}

	if actor.Role == RolePatient {
		id := actor.ID
		input.PatientID = &id
		input.PatientName = actor.Name
	}

	input.ID = uuid.New()
	input.Status = StatusScheduled
	input.RemoteID = ""
	input.Synced = false

	if err := s.repo.InsertEvent(ctx, &input); err != nil {
		return nil, Outcome{}, fmt.Errorf("store event: %w", err)
	}

	outcome := s.syncEvent(ctx, &input)

	s.notify(bus.TopicAppointmentCreated, input)

	return &input, outcome, nil
}

// UpdateEvent applies changes to an existing event. Patient actors may only
// touch their own appointments; the check runs before any remote call.
func (s *Service) UpdateEvent(ctx context.Context, actor Actor, input Event) (*Event, Outcome, error) {
	existing, err := s.repo.GetEventByID(ctx, input.ID)
	if err != nil {
		return nil, Outcome{}, err
	}

	if actor.Role == RolePatient && !existing.OwnedBy(actor.ID, actor.Name) {
		return nil, Outcome{}, ErrAccessDenied
	}

	if err := s.validate(&input); err != nil {
		return nil, Outcome{}, err
	}

	if input.Status == "" {
		input.Status = existing.Status
	}
	if !CanTransition(existing.Status, input.Status) {
		return nil, Outcome{}, fmt.Errorf("%w: %s -> %s", ErrStatusTransition, existing.Status, input.Status)
	}

	input.CreatedAt = existing.CreatedAt
	input.RemoteID = existing.RemoteID
	input.Synced = false

	if err := s.repo.UpdateEvent(ctx, &input); err != nil {
		return nil, Outcome{}, fmt.Errorf("store event update: %w", err)
	}

	outcome := s.syncEvent(ctx, &input)

	s.notify(bus.TopicAppointmentUpdated, input)

	return &input, outcome, nil
}

// DeleteEvent removes an event locally and then from the remote calendar.
func (s *Service) DeleteEvent(ctx context.Context, actor Actor, id uuid.UUID) (Outcome, error) {
	existing, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}

	if actor.Role == RolePatient && !existing.OwnedBy(actor.ID, actor.Name) {
		return Outcome{}, ErrAccessDenied
	}

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return Outcome{}, fmt.Errorf("delete event: %w", err)
	}

	outcome := syncedOutcome()
	if existing.RemoteID != "" {
		outcome = s.syncDelete(ctx, existing)
	}

	s.notify(bus.TopicAppointmentDeleted, *existing)

	return outcome, nil
}

// SyncPending re-pushes events whose last remote sync failed. Called by the
// sync worker; returns how many events were brought back in sync.
func (s *Service) SyncPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.repo.ListUnsynced(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unsynced events: %w", err)
	}

	synced := 0
	for i := range pending {
		e := &pending[i]
		outcome := s.syncEvent(ctx, e)
		if outcome.State == SyncStateSynced {
			synced++
			continue
		}
		s.log.Warn().
			Str("event_id", e.ID.String()).
			Str("reason", outcome.Reason).
			Msg("event still unsynced after reconciliation")
	}

	if synced > 0 {
		s.publisher.Publish(bus.TopicCalendarUpdated, nil)
	}

	return synced, nil
}

// syncEvent mirrors the event to the remote provider under a per-event lock,
// retrying transient failures, and records the result in the repository.
func (s *Service) syncEvent(ctx context.Context, e *Event) Outcome {
	prov, calendarID, err := s.providers.Build(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrNotConnected) {
			return localOnly("calendar not connected")
		}
		return localOnly(fmt.Sprintf("provider unavailable: %v", err))
	}

	var remoteID string
	err = s.locker.WithEventLock(ctx, e.ID, func(lockCtx context.Context) error {
		return s.withRetry(lockCtx, func(attemptCtx context.Context) error {
			remote := toRemoteEvent(e)
			if e.RemoteID == "" {
				id, err := prov.CreateEvent(attemptCtx, calendarID, remote)
				if err != nil {
					return err
				}
				remoteID = id
				return nil
			}
			remoteID = e.RemoteID
			return prov.UpdateEvent(attemptCtx, calendarID, e.RemoteID, remote)
		})
	})
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return localOnly("event sync already in progress")
		}
		s.log.Warn().Err(err).Str("event_id", e.ID.String()).Msg("remote sync failed, keeping local copy")
		return localOnly("remote calendar unreachable, saved locally")
	}

	if err := s.repo.MarkSynced(ctx, e.ID, remoteID); err != nil && !errors.Is(err, ErrEventNotFound) {
		s.log.Error().Err(err).Str("event_id", e.ID.String()).Msg("failed to record sync state")
	}
	e.RemoteID = remoteID
	e.Synced = true

	return syncedOutcome()
}

func (s *Service) syncDelete(ctx context.Context, e *Event) Outcome {
	prov, calendarID, err := s.providers.Build(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrNotConnected) {
			return localOnly("calendar not connected")
		}
		return localOnly(fmt.Sprintf("provider unavailable: %v", err))
	}

	err = s.locker.WithEventLock(ctx, e.ID, func(lockCtx context.Context) error {
		return s.withRetry(lockCtx, func(attemptCtx context.Context) error {
			return prov.DeleteEvent(attemptCtx, calendarID, e.RemoteID)
		})
	})
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return localOnly("event sync already in progress")
		}
		s.log.Warn().Err(err).Str("event_id", e.ID.String()).Msg("remote delete failed, event removed locally")
		return localOnly("remote calendar unreachable, deleted locally")
	}

	return syncedOutcome()
}

// withRetry runs fn up to the configured attempt count with exponential
// backoff, honoring ctx between attempts so an abandoned operation never
// keeps retrying past its caller.
func (s *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := s.cfg.SyncAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := s.cfg.SyncBackoffBase

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := func() error {
			if s.cfg.SyncAttemptTimeout > 0 {
				attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.SyncAttemptTimeout)
				defer cancel()
				return fn(attemptCtx)
			}
			return fn(ctx)
		}()

		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < attempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}

	return lastErr
}

// notify publishes the domain event and the generic refresh signal. Both go
// out regardless of sync outcome; the local mutation already happened.
func (s *Service) notify(topic string, e Event) {
	s.publisher.Publish(topic, e)
	s.publisher.Publish(bus.TopicCalendarUpdated, nil)
}

// validate applies the structural checks plus the duration cap. No side
// effects on failure; validation errors are never retried.
func (s *Service) validate(e *Event) error {
	if err := ValidateEvent(e); err != nil {
		return err
	}
	if res := ValidateTimeRange(e.Start, e.End, s.cfg.MaxEventDuration); !res.Valid {
		return fmt.Errorf("%w: %s", ErrDurationTooLong, res.Message)
	}
	return nil
}

func toRemoteEvent(e *Event) *provider.RemoteEvent {
	status := "tentative"
	switch e.Status {
	case StatusConfirmed, StatusCompleted:
		status = "confirmed"
	case StatusCancelled:
		status = "cancelled"
	}

	return &provider.RemoteEvent{
		ID:          e.RemoteID,
		Summary:     e.Title,
		Description: e.Description,
		Location:    e.Location,
		Start:       e.Start,
		End:         e.End,
		Status:      status,
	}
}

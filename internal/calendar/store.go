package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Snapshotter is the optional best-effort fallback cache the store reads
// when the repository is unreachable and writes after a good fetch.
type Snapshotter interface {
	SaveEventSnapshot(ctx context.Context, events any) error
	LoadEventSnapshot(ctx context.Context, dest any) (bool, error)
}

// Store holds the in-memory event list for one viewer's visible date range.
// It is the only writer of that list; views and projections are read-only
// copies. Fetches are rate-limited and mutually exclusive: at most one runs
// at a time, and overlapping requests collapse into a no-op rather than
// queuing.
type Store struct {
	repo      Repository
	snapshots Snapshotter
	viewer    Actor
	log       zerolog.Logger

	minInterval time.Duration
	windowPast  time.Duration
	windowAhead time.Duration

	mu        sync.Mutex
	events    []Event
	upcoming  []UpcomingAppointment
	inFlight  bool
	lastFetch time.Time // last successful fetch
	lastErr   error
}

type StoreConfig struct {
	MinInterval time.Duration
	WindowPast  time.Duration
	WindowAhead time.Duration
}

func NewStore(repo Repository, snapshots Snapshotter, viewer Actor, cfg StoreConfig, log zerolog.Logger) *Store {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 5 * time.Second
	}
	if cfg.WindowPast <= 0 {
		cfg.WindowPast = 30 * 24 * time.Hour
	}
	if cfg.WindowAhead <= 0 {
		cfg.WindowAhead = 90 * 24 * time.Hour
	}
	return &Store{
		repo:        repo,
		snapshots:   snapshots,
		viewer:      viewer,
		log:         log,
		minInterval: cfg.MinInterval,
		windowPast:  cfg.WindowPast,
		windowAhead: cfg.WindowAhead,
	}
}

// Fetch reloads the event list. It reports whether a fetch was actually
// issued: false means it was skipped because one is already in flight or
// the previous successful fetch is too recent. Skipped callers that still
// need fresh data must re-trigger later.
func (s *Store) Fetch(ctx context.Context) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	if s.inFlight || now.Sub(s.lastFetch) < s.minInterval {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	from := now.Add(-s.windowPast)
	to := now.Add(s.windowAhead)
	events, err := s.repo.ListEvents(ctx, from, to)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		// Previous good state is kept; a snapshot only stands in when
		// there is nothing held at all.
		s.lastErr = err
		s.log.Warn().Err(err).Msg("event fetch failed, keeping previous list")
		if len(s.events) == 0 && s.snapshots != nil {
			var cached []Event
			if ok, snapErr := s.snapshots.LoadEventSnapshot(ctx, &cached); snapErr == nil && ok {
				s.apply(cached, now)
				s.log.Info().Int("events", len(s.events)).Msg("serving events from fallback snapshot")
			}
		}
		return true, err
	}

	s.lastErr = nil
	s.lastFetch = now
	s.apply(events, now)

	if s.snapshots != nil {
		if snapErr := s.snapshots.SaveEventSnapshot(ctx, events); snapErr != nil {
			s.log.Debug().Err(snapErr).Msg("event snapshot write failed")
		}
	}

	return true, nil
}

// apply filters for the viewer and recomputes projections. Caller holds mu.
func (s *Store) apply(events []Event, now time.Time) {
	filtered := FilterForViewer(events, s.viewer)
	s.events = filtered
	s.upcoming = UpcomingFrom(filtered, now)
}

// Events returns a copy of the held event list.
func (s *Store) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Upcoming returns a copy of the upcoming-appointments projection.
func (s *Store) Upcoming() []UpcomingAppointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UpcomingAppointment, len(s.upcoming))
	copy(out, s.upcoming)
	return out
}

// Err returns the error recorded by the most recent failed fetch, cleared
// by the next successful one.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FilterForViewer applies role-based visibility. Clinicians and admins see
// everything; patients see open slots plus their own appointments, matched
// by patient id or, for events without one, by name containment.
func FilterForViewer(events []Event, viewer Actor) []Event {
	if viewer.Role != RolePatient {
		return events
	}

	var out []Event
	for _, e := range events {
		if e.IsAvailable {
			out = append(out, e)
			continue
		}
		if e.OwnedBy(viewer.ID, viewer.Name) {
			out = append(out, e)
		}
	}
	return out
}

package calendar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// countingRepo serves a fixed event list and can be flipped into failure.
type countingRepo struct {
	memRepo
	listCalls atomic.Int64
	listErr   error
	fixed     []Event
}

func (r *countingRepo) ListEvents(_ context.Context, _, _ time.Time) ([]Event, error) {
	r.listCalls.Add(1)
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Event, len(r.fixed))
	copy(out, r.fixed)
	return out, nil
}

type memSnapshotter struct {
	mu     sync.Mutex
	events []Event
	saves  int
}

func (s *memSnapshotter) SaveEventSnapshot(_ context.Context, events any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev, ok := events.([]Event); ok {
		s.events = append([]Event(nil), ev...)
	}
	s.saves++
	return nil
}

func (s *memSnapshotter) LoadEventSnapshot(_ context.Context, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil {
		return false, nil
	}
	if out, ok := dest.(*[]Event); ok {
		*out = append([]Event(nil), s.events...)
		return true, nil
	}
	return false, nil
}

func storeFixtureEvents(patientID uuid.UUID) []Event {
	base := time.Now().Add(24 * time.Hour)
	other := uuid.New()
	return []Event{
		{ID: uuid.New(), Title: "Available", Start: base, End: base.Add(30 * time.Minute), IsAvailable: true},
		{ID: uuid.New(), Title: "Mine", Start: base.Add(time.Hour), End: base.Add(90 * time.Minute), PatientID: &patientID, Status: StatusScheduled},
		{ID: uuid.New(), Title: "Someone else", Start: base.Add(2 * time.Hour), End: base.Add(150 * time.Minute), PatientID: &other, Status: StatusScheduled},
		{ID: uuid.New(), Title: "Also not mine", Start: base.Add(3 * time.Hour), End: base.Add(210 * time.Minute), PatientID: &other, Status: StatusConfirmed},
		{ID: uuid.New(), Title: "Unassigned", Start: base.Add(4 * time.Hour), End: base.Add(270 * time.Minute), Status: StatusScheduled},
	}
}

func TestStoreFetch(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Name: "Dr. Smith", Role: RoleClinician}
	repo := &countingRepo{fixed: storeFixtureEvents(uuid.New())}
	store := NewStore(repo, nil, viewer, StoreConfig{MinInterval: 5 * time.Second}, zerolog.Nop())

	issued, err := store.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !issued {
		t.Fatal("first fetch must be issued")
	}
	if got := len(store.Events()); got != 5 {
		t.Errorf("clinician sees all 5 events, got %d", got)
	}
}

func TestStoreFetch_RateLimited(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Role: RoleClinician}
	repo := &countingRepo{fixed: storeFixtureEvents(uuid.New())}
	store := NewStore(repo, nil, viewer, StoreConfig{MinInterval: time.Minute}, zerolog.Nop())

	if issued, _ := store.Fetch(context.Background()); !issued {
		t.Fatal("first fetch must be issued")
	}
	if issued, err := store.Fetch(context.Background()); issued || err != nil {
		t.Errorf("second fetch within the interval must be skipped, got issued=%v err=%v", issued, err)
	}
	if calls := repo.listCalls.Load(); calls != 1 {
		t.Errorf("expected exactly 1 repository call, got %d", calls)
	}
}

func TestStoreFetch_ConcurrentCollapse(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Role: RoleClinician}
	repo := &countingRepo{fixed: storeFixtureEvents(uuid.New())}
	store := NewStore(repo, nil, viewer, StoreConfig{MinInterval: time.Minute}, zerolog.Nop())

	var wg sync.WaitGroup
	var issued atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Fetch(context.Background()); ok {
				issued.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := issued.Load(); got != 1 {
		t.Errorf("overlapping fetches must collapse to one, got %d issued", got)
	}
	if calls := repo.listCalls.Load(); calls != 1 {
		t.Errorf("expected exactly 1 repository call, got %d", calls)
	}
}

func TestStoreFetch_PatientFiltering(t *testing.T) {
	patientID := uuid.New()
	viewer := Actor{ID: patientID, Name: "Jane Roe", Role: RolePatient}
	repo := &countingRepo{fixed: storeFixtureEvents(patientID)}
	store := NewStore(repo, nil, viewer, StoreConfig{}, zerolog.Nop())

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := store.Events()
	if len(events) != 2 {
		t.Fatalf("patient sees open slots plus own events, expected 2 got %d", len(events))
	}
	for _, e := range events {
		if !e.IsAvailable && (e.PatientID == nil || *e.PatientID != patientID) {
			t.Errorf("leaked foreign event %q to patient viewer", e.Title)
		}
	}
}

func TestStoreFetch_FailureKeepsPreviousList(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Role: RoleClinician}
	repo := &countingRepo{fixed: storeFixtureEvents(uuid.New())}
	store := NewStore(repo, nil, viewer, StoreConfig{MinInterval: time.Nanosecond}, zerolog.Nop())

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	before := store.Events()

	repo.listErr = errors.New("database gone")
	time.Sleep(time.Millisecond) // clear the min interval

	issued, err := store.Fetch(context.Background())
	if !issued {
		t.Fatal("fetch past the interval must be issued")
	}
	if err == nil {
		t.Fatal("expected fetch error surfaced")
	}
	if store.Err() == nil {
		t.Error("store must record the fetch error")
	}
	if got := store.Events(); len(got) != len(before) {
		t.Errorf("failed fetch must keep the previous list, had %d now %d", len(before), len(got))
	}
}

func TestStoreFetch_SnapshotFallback(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Role: RoleClinician}
	cached := storeFixtureEvents(uuid.New())
	snaps := &memSnapshotter{events: cached}
	repo := &countingRepo{listErr: errors.New("database gone")}
	store := NewStore(repo, snaps, viewer, StoreConfig{}, zerolog.Nop())

	issued, err := store.Fetch(context.Background())
	if !issued || err == nil {
		t.Fatalf("expected issued fetch with error, got issued=%v err=%v", issued, err)
	}
	if got := len(store.Events()); got != len(cached) {
		t.Errorf("empty store must fall back to the snapshot, expected %d events got %d", len(cached), got)
	}
}

func TestStoreFetch_SavesSnapshotOnSuccess(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Role: RoleClinician}
	snaps := &memSnapshotter{}
	repo := &countingRepo{fixed: storeFixtureEvents(uuid.New())}
	store := NewStore(repo, snaps, viewer, StoreConfig{}, zerolog.Nop())

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snaps.mu.Lock()
	defer snaps.mu.Unlock()
	if snaps.saves != 1 {
		t.Errorf("expected one snapshot write, got %d", snaps.saves)
	}
}

func TestStoreEvents_ReturnsCopy(t *testing.T) {
	viewer := Actor{ID: uuid.New(), Role: RoleClinician}
	repo := &countingRepo{fixed: storeFixtureEvents(uuid.New())}
	store := NewStore(repo, nil, viewer, StoreConfig{}, zerolog.Nop())

	if _, err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.Events()
	got[0].Title = "mutated"
	if store.Events()[0].Title == "mutated" {
		t.Error("Events must return a copy, not the held slice")
	}
}

package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to EventStatus
		want     bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusScheduled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusScheduled, false},
		// no-op transitions are always allowed
		{StatusCompleted, StatusCompleted, true},
		{StatusScheduled, StatusScheduled, true},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOwnedBy(t *testing.T) {
	patientID := uuid.New()
	otherID := uuid.New()

	withID := Event{PatientID: &patientID, PatientName: "John Doe"}
	if !withID.OwnedBy(patientID, "Somebody Else") {
		t.Error("id match must own regardless of name")
	}
	if withID.OwnedBy(otherID, "John Doe") {
		t.Error("id mismatch must not own even when the name matches; the id is authoritative")
	}

	nameOnly := Event{PatientName: "John Doe"}
	if !nameOnly.OwnedBy(otherID, "john doe") {
		t.Error("name containment fallback should be case insensitive")
	}
	if !nameOnly.OwnedBy(otherID, "Doe") {
		t.Error("name fallback is containment, not equality")
	}
	if nameOnly.OwnedBy(otherID, "Smith") {
		t.Error("unrelated name must not own")
	}
	if nameOnly.OwnedBy(otherID, "") {
		t.Error("empty viewer name must never match")
	}
}

func TestUpcomingFrom(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{ID: uuid.New(), Title: "later", Start: now.Add(48 * time.Hour), End: now.Add(49 * time.Hour), DoctorName: "Dr. Lee"},
		{ID: uuid.New(), Title: "sooner", Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)},
		{ID: uuid.New(), Title: "past", Start: now.Add(-3 * time.Hour), End: now.Add(-2 * time.Hour)},
		{ID: uuid.New(), Title: "cancelled", Start: now.Add(5 * time.Hour), End: now.Add(6 * time.Hour), Status: StatusCancelled},
		{ID: uuid.New(), Title: "slot", Start: now.Add(4 * time.Hour), End: now.Add(5 * time.Hour), IsAvailable: true},
	}

	upcoming := UpcomingFrom(events, now)
	if len(upcoming) != 2 {
		t.Fatalf("expected 2 upcoming appointments, got %d", len(upcoming))
	}
	if upcoming[0].Title != "sooner" || upcoming[1].Title != "later" {
		t.Errorf("expected ascending start order, got %q then %q", upcoming[0].Title, upcoming[1].Title)
	}
	if upcoming[0].Date != "2025-03-10" || upcoming[0].Time != "14:00" || upcoming[0].EndTime != "15:00" {
		t.Errorf("unexpected formatting: %+v", upcoming[0])
	}
	if upcoming[1].Doctor != "Dr. Lee" {
		t.Errorf("expected doctor name carried through, got %q", upcoming[1].Doctor)
	}
}

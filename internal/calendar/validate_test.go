package calendar

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var validateBase = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestValidateTimeRange_Valid(t *testing.T) {
	durations := []time.Duration{
		time.Minute,
		30 * time.Minute,
		time.Hour,
		4 * time.Hour, // cap is inclusive
	}

	for _, d := range durations {
		res := ValidateTimeRange(validateBase, validateBase.Add(d), 0)
		if !res.Valid {
			t.Errorf("duration %s: expected valid, got %q", d, res.Message)
		}
	}
}

func TestValidateTimeRange_EndBeforeStart(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"inverted", validateBase, validateBase.Add(-30 * time.Minute)},
		{"equal", validateBase, validateBase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateTimeRange(tc.start, tc.end, 0)
			if res.Valid {
				t.Fatal("expected invalid range")
			}
			if !strings.Contains(res.Message, "after start") {
				t.Errorf("expected end-before-start message, got %q", res.Message)
			}
		})
	}
}

func TestValidateTimeRange_TooLong(t *testing.T) {
	res := ValidateTimeRange(validateBase, validateBase.Add(4*time.Hour+time.Minute), 0)
	if res.Valid {
		t.Fatal("expected invalid range")
	}
	if !strings.Contains(res.Message, "longer than") {
		t.Errorf("expected duration message, got %q", res.Message)
	}
}

func TestValidateTimeRange_MissingTimes(t *testing.T) {
	res := ValidateTimeRange(time.Time{}, validateBase, 0)
	if res.Valid {
		t.Fatal("expected invalid range")
	}

	res = ValidateTimeRange(validateBase, time.Time{}, 0)
	if res.Valid {
		t.Fatal("expected invalid range")
	}
}

func TestValidateTimeRange_CustomMax(t *testing.T) {
	res := ValidateTimeRange(validateBase, validateBase.Add(2*time.Hour), time.Hour)
	if res.Valid {
		t.Fatal("expected range above the custom cap to be invalid")
	}
}

func TestValidateEvent(t *testing.T) {
	cases := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{
			name:  "valid booked event",
			event: Event{Title: "Follow-up", Start: validateBase, End: validateBase.Add(30 * time.Minute)},
		},
		{
			name:  "open slot needs no title",
			event: Event{IsAvailable: true, Start: validateBase, End: validateBase.Add(30 * time.Minute)},
		},
		{
			name:    "missing start",
			event:   Event{Title: "x", End: validateBase},
			wantErr: ErrMissingTimes,
		},
		{
			name:    "missing end",
			event:   Event{Title: "x", Start: validateBase},
			wantErr: ErrMissingTimes,
		},
		{
			name:    "end before start",
			event:   Event{Title: "x", Start: validateBase, End: validateBase.Add(-time.Hour)},
			wantErr: ErrEndBeforeStart,
		},
		{
			name:    "end equals start",
			event:   Event{Title: "x", Start: validateBase, End: validateBase},
			wantErr: ErrEndBeforeStart,
		},
		{
			name:    "booked event without title",
			event:   Event{Start: validateBase, End: validateBase.Add(time.Hour)},
			wantErr: ErrMissingTitle,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEvent(&tc.event)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingTimes    = errors.New("event start and end times are required")
	ErrEndBeforeStart  = errors.New("event end time must be after start time")
	ErrMissingTitle    = errors.New("event title is required")
	ErrDurationTooLong = errors.New("event duration exceeds the allowed maximum")
)

// MaxEventDuration is the default cap enforced by ValidateTimeRange.
const MaxEventDuration = 4 * time.Hour

// ValidateEvent checks the structural validity of a candidate event.
// It does not enforce the duration cap; see ValidateTimeRange.
func ValidateEvent(e *Event) error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrMissingTimes
	}
	if !e.End.After(e.Start) {
		return ErrEndBeforeStart
	}
	if e.Title == "" && !e.IsAvailable {
		return ErrMissingTitle
	}
	return nil
}

// RangeResult is the structured outcome of a time-range check.
type RangeResult struct {
	Valid   bool
	Message string
}

// ValidateTimeRange checks a proposed start/end pair at create/edit time.
// Beyond the ordering rules of ValidateEvent it rejects ranges longer
// than max; pass zero to use MaxEventDuration.
func ValidateTimeRange(start, end time.Time, max time.Duration) RangeResult {
	if max <= 0 {
		max = MaxEventDuration
	}
	if start.IsZero() || end.IsZero() {
		return RangeResult{Message: "start and end times are required"}
	}
	if !end.After(start) {
		return RangeResult{Message: "end time must be after start time"}
	}
	if end.Sub(start) > max {
		return RangeResult{
			Message: fmt.Sprintf("appointment cannot be longer than %s", max),
		}
	}
	return RangeResult{Valid: true}
}

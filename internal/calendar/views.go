package calendar

import "time"

// View adapters are pure functions over an event list. They recompute from
// scratch on every call; list sizes stay small enough that caching would
// only add invalidation bugs.

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EventsForDate returns events whose start falls on the given calendar day.
func EventsForDate(events []Event, date time.Time) []Event {
	var out []Event
	for _, e := range events {
		if sameDay(e.Start, date) {
			out = append(out, e)
		}
	}
	return out
}

// EventsForHour returns events starting on the given day and hour.
func EventsForHour(events []Event, date time.Time, hour int) []Event {
	var out []Event
	for _, e := range events {
		if sameDay(e.Start, date) && e.Start.Hour() == hour {
			out = append(out, e)
		}
	}
	return out
}

// DayCounts buckets one day for the month view.
type DayCounts struct {
	Available int
	Booked    int
}

// MonthSummary buckets every day of the month containing ref into open-slot
// and booked counts, keyed by day of month.
func MonthSummary(events []Event, ref time.Time) map[int]DayCounts {
	out := make(map[int]DayCounts)
	for _, e := range events {
		if e.Start.Year() != ref.Year() || e.Start.Month() != ref.Month() {
			continue
		}
		day := e.Start.Day()
		c := out[day]
		if e.IsAvailable {
			c.Available++
		} else {
			c.Booked++
		}
		out[day] = c
	}
	return out
}

// WeekDays returns the seven consecutive days of the week containing ref,
// starting Monday. Convenience for rendering the week view.
func WeekDays(ref time.Time) []time.Time {
	weekday := int(ref.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := ref.AddDate(0, 0, 1-weekday)
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, ref.Location())

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

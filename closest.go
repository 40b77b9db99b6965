package cs4teachers

import "time"

// DaysDifference returns the whole days from today to an event spanning
// start..end. An event in progress yields 0, an upcoming event the days
// until it starts, and a finished event the (negative) days since it ended.
func DaysDifference(start, end, today time.Time) int {
	s, e, t := calendarDay(start), calendarDay(end), calendarDay(today)
	switch {
	case t.Before(s):
		return daysBetween(t, s)
	case t.After(e):
		return -daysBetween(e, t)
	default:
		return 0
	}
}

// calendarDay strips the clock, keeping the date in the value's location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// FindClosestEvent picks the event most relevant to today: one in progress,
// else the nearest upcoming, else the most recently finished. Ties keep the
// earliest event in iteration order. ok is false for an empty slice.
func FindClosestEvent(events []Event, today time.Time) (closest Event, ok bool) {
	best := 0
	for _, ev := range events {
		diff := DaysDifference(ev.StartDate, ev.EndDate, today)
		if !ok || closerThan(diff, best) {
			closest, best, ok = ev, diff, true
		}
	}
	return closest, ok
}

// closerThan reports whether a candidate day difference beats the current
// best. Non-negative differences always beat negative ones.
func closerThan(candidate, current int) bool {
	if candidate >= 0 {
		return current < 0 || candidate < current
	}
	return current < 0 && candidate > current
}

package timeline

import "time"

// All layout math operates on calendar dates pinned to UTC midnight.
// Date is the canonical constructor; DateOf normalizes an arbitrary
// timestamp (e.g. an injected "now" in some display timezone) to the
// calendar date it falls on.

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// DaysBetween returns the number of whole days from a to b (negative if
// b is before a). Both arguments are assumed to be UTC midnights.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return Date(y, m, 1)
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, -1)
}

// startOfWeek returns the most recent week boundary at or before t,
// according to the configured first day of the week.
func startOfWeek(t time.Time, ws WeekStart) time.Time {
	first := time.Monday
	if ws == WeekStartSunday {
		first = time.Sunday
	}
	diff := (int(t.Weekday()) - int(first) + 7) % 7
	return t.AddDate(0, 0, -diff)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

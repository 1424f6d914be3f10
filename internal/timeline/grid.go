package timeline

import (
	"time"

	"relboard/internal/model"
)

// GridDays returns the ordered day sequence of the month grid for the given
// anchor: every day of the anchor's month plus the leading/trailing days of
// adjacent months needed to fill complete weeks.
func GridDays(monthAnchor time.Time, weekStart WeekStart) []time.Time {
	first := startOfWeek(startOfMonth(DateOf(monthAnchor)), weekStart)
	last := startOfWeek(endOfMonth(DateOf(monthAnchor)), weekStart).AddDate(0, 0, 6)

	days := make([]time.Time, 0, 42)
	for cur := first; !cur.After(last); cur = cur.AddDate(0, 0, 1) {
		days = append(days, cur)
	}
	return days
}

// BucketByDay groups releases by the calendar day their end date falls on,
// keyed by ISO date string. The map contains a (possibly empty, never nil)
// slice for every day of the month grid.
//
// Bucketing by end date is deliberate: the calendar view communicates when
// a release lands, not how long it runs. Releases landing outside the grid
// are not represented; the grid is scoped to the displayed month. Display
// truncation of crowded days is the caller's concern, the full list is
// always returned.
func BucketByDay(releases []model.Release, monthAnchor time.Time, weekStart WeekStart) map[string][]model.Release {
	buckets := make(map[string][]model.Release)
	for _, d := range GridDays(monthAnchor, weekStart) {
		buckets[d.Format(model.DateLayout)] = []model.Release{}
	}

	for _, r := range releases {
		key := DateOf(r.End).Format(model.DateLayout)
		if _, ok := buckets[key]; ok {
			buckets[key] = append(buckets[key], r)
		}
	}

	return buckets
}

package timeline

import "time"

// Window is the contiguous date range currently rendered. Start and End
// are inclusive UTC-midnight dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive day count of the window.
func (w Window) Days() int {
	return DaysBetween(w.Start, w.End) + 1
}

// Contains reports whether the given date falls inside the window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Column is one discrete tick of the visible axis: a day, a week, or a
// month depending on zoom. IsToday and IsWeekend are meaningful only at
// day zoom.
type Column struct {
	Anchor    time.Time
	Index     int
	IsToday   bool
	IsWeekend bool
}

// Plan is the output of PlanWindow: the visible window plus its column set.
type Plan struct {
	Window  Window
	Columns []Column
}

// PlanWindow computes the visible date range and column set for an anchor
// date and zoom level.
//
// The navigated period is the anchor's calendar month at every zoom level;
// the window runs from one month before the period start to two months
// after the period end. The padding keeps releases just outside the
// navigated month visible without extra navigation, and because the window
// does not depend on zoom, zooming only changes column granularity.
//
// now is the injected reference time used to flag the today column.
func PlanWindow(anchor time.Time, zoom ZoomLevel, weekStart WeekStart, now time.Time) Plan {
	period := startOfMonth(DateOf(anchor))
	w := Window{
		Start: period.AddDate(0, -1, 0),
		End:   endOfMonth(period.AddDate(0, 2, 0)),
	}

	today := DateOf(now)
	var cols []Column

	switch zoom {
	case ZoomWeek:
		// First column is the week boundary at or before the window start,
		// so the column span covers the whole window.
		for cur := startOfWeek(w.Start, weekStart); !cur.After(w.End); cur = cur.AddDate(0, 0, 7) {
			cols = append(cols, Column{Anchor: cur, Index: len(cols)})
		}
	case ZoomMonth:
		for cur := startOfMonth(w.Start); !cur.After(w.End); cur = cur.AddDate(0, 1, 0) {
			cols = append(cols, Column{Anchor: cur, Index: len(cols)})
		}
	default: // ZoomDay
		for cur := w.Start; !cur.After(w.End); cur = cur.AddDate(0, 0, 1) {
			cols = append(cols, Column{
				Anchor:    cur,
				Index:     len(cols),
				IsToday:   cur.Equal(today),
				IsWeekend: isWeekend(cur),
			})
		}
	}

	return Plan{Window: w, Columns: cols}
}

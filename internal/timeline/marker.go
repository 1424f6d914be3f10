package timeline

import "time"

// LocateToday computes the pixel offset of the injected "now" within the
// visible window. The second return value is false when today is outside
// the window, in which case the caller omits the marker.
//
// At day zoom the marker lands exactly on the left boundary of the column
// flagged IsToday by PlanWindow. At week and month zoom it is interpolated
// proportionally by day offset inside the containing column.
func LocateToday(w Window, columns []Column, zoom ZoomLevel, pixelsPerColumn float64, now time.Time) (float64, bool) {
	if len(columns) == 0 {
		return 0, false
	}

	today := DateOf(now)
	if !w.Contains(today) {
		return 0, false
	}

	if zoom == ZoomDay {
		for _, c := range columns {
			if c.IsToday {
				return float64(c.Index) * pixelsPerColumn, true
			}
		}
		return 0, false
	}

	// Coarse zoom: find the column containing today. Columns are ordered,
	// so take the last anchor at or before today.
	idx := -1
	for i, c := range columns {
		if c.Anchor.After(today) {
			break
		}
		idx = i
	}
	if idx == -1 {
		return 0, false
	}

	// The column's day span runs to the next anchor (or the day past the
	// window end for the last column).
	spanEnd := w.End.AddDate(0, 0, 1)
	if idx+1 < len(columns) {
		spanEnd = columns[idx+1].Anchor
	}
	spanDays := DaysBetween(columns[idx].Anchor, spanEnd)
	if spanDays < 1 {
		spanDays = 1
	}

	into := DaysBetween(columns[idx].Anchor, today)
	offset := float64(columns[idx].Index)*pixelsPerColumn +
		float64(into)/float64(spanDays)*pixelsPerColumn
	return offset, true
}

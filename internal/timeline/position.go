package timeline

import (
	"relboard/internal/model"
)

// Bar is a release annotated with pixel geometry inside the column strip.
type Bar struct {
	Release model.Release

	LeftPx  float64
	WidthPx float64

	// Row is the vertical slot assigned by AssignRows; zero until then.
	Row int
}

// End returns the exclusive right edge of the bar.
func (b Bar) End() float64 {
	return b.LeftPx + b.WidthPx
}

// Position maps each release's date span to a left offset and width within
// the total width of the column strip. Every input release produces exactly
// one Bar, in input order; releases outside the window are clamped to the
// window edges rather than dropped, so callers can decide whether to clip.
//
// Zero-length spans get at least minWidthPx so they stay clickable, and
// every bar satisfies 0 <= LeftPx and End() <= total width: a floor-widened
// bar near the right edge is shifted left instead of spilling past the strip.
//
// The pixel scale spreads the window's day span over the whole column strip.
// At week zoom the first column can begin before the window start, so bar
// offsets and column-boundary geometry (index*pixelsPerColumn, which
// LocateToday uses) diverge by the pre-window day count; align bars against
// day offsets, not column indices.
// A release with an inverted date range fails fast with an error naming it.
func Position(releases []model.Release, w Window, columns []Column, pixelsPerColumn, minWidthPx float64) ([]Bar, error) {
	bars := make([]Bar, 0, len(releases))
	if len(releases) == 0 {
		return bars, nil
	}

	totalDays := w.Days()
	totalWidth := float64(len(columns)) * pixelsPerColumn
	if totalDays <= 0 || totalWidth <= 0 {
		// Empty window: geometry degenerates to zero offsets.
		for _, r := range releases {
			if err := r.Validate(); err != nil {
				return nil, err
			}
			bars = append(bars, Bar{Release: r, LeftPx: 0, WidthPx: minWidthPx})
		}
		return bars, nil
	}

	for _, r := range releases {
		if err := r.Validate(); err != nil {
			return nil, err
		}

		startOffset := DaysBetween(w.Start, r.Start)
		if startOffset < 0 {
			startOffset = 0
		}
		if startOffset > totalDays {
			startOffset = totalDays
		}

		duration := DaysBetween(r.Start, r.End) + 1
		if duration < 1 {
			duration = 1
		}

		left := float64(startOffset) / float64(totalDays) * totalWidth
		width := float64(duration) / float64(totalDays) * totalWidth
		if width < minWidthPx {
			width = minWidthPx
		}
		if width > totalWidth {
			width = totalWidth
		}

		// The floor can push a bar past the strip near the right edge
		// (coarse zooms have per-day density below the floor); shift it
		// back so left+width never exceeds the total width.
		if left+width > totalWidth {
			left = totalWidth - width
		}

		bars = append(bars, Bar{Release: r, LeftPx: left, WidthPx: width})
	}

	return bars, nil
}

package timeline

import "fmt"

// ZoomLevel is the time granularity of one timeline column.
type ZoomLevel int

const (
	ZoomDay ZoomLevel = iota
	ZoomWeek
	ZoomMonth
)

func (z ZoomLevel) String() string {
	switch z {
	case ZoomDay:
		return "day"
	case ZoomWeek:
		return "week"
	case ZoomMonth:
		return "month"
	default:
		return fmt.Sprintf("ZoomLevel(%d)", int(z))
	}
}

// ParseZoom converts a boundary string ("day"/"week"/"month") to a ZoomLevel.
func ParseZoom(s string) (ZoomLevel, error) {
	switch s {
	case "day":
		return ZoomDay, nil
	case "week":
		return ZoomWeek, nil
	case "month":
		return ZoomMonth, nil
	default:
		return ZoomDay, fmt.Errorf("unknown zoom level %q", s)
	}
}

// ZoomIn narrows the column unit by one step (Month -> Week -> Day),
// clamped at Day.
func ZoomIn(z ZoomLevel) ZoomLevel {
	if z > ZoomDay {
		return z - 1
	}
	return z
}

// ZoomOut widens the column unit by one step (Day -> Week -> Month),
// clamped at Month.
func ZoomOut(z ZoomLevel) ZoomLevel {
	if z < ZoomMonth {
		return z + 1
	}
	return z
}

// WeekStart is the configured first day of the week. It drives both week
// column boundaries and the calendar grid, so the two can never disagree.
type WeekStart int

const (
	WeekStartMonday WeekStart = iota
	WeekStartSunday
)

func (w WeekStart) String() string {
	if w == WeekStartSunday {
		return "sunday"
	}
	return "monday"
}

// ParseWeekStart maps a config string to a WeekStart. Unknown values fall
// back to monday, matching config normalization.
func ParseWeekStart(s string) WeekStart {
	if s == "sunday" {
		return WeekStartSunday
	}
	return WeekStartMonday
}

// PixelScale holds the pixels-per-column value for each zoom level.
type PixelScale struct {
	Day   float64
	Week  float64
	Month float64
}

// DefaultPixelScale is the documented default resolution table.
var DefaultPixelScale = PixelScale{Day: 40, Week: 100, Month: 150}

func (s PixelScale) For(z ZoomLevel) float64 {
	switch z {
	case ZoomWeek:
		return s.Week
	case ZoomMonth:
		return s.Month
	default:
		return s.Day
	}
}

package feed

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "relboard/internal/log"
)

// ReleaseEvent is the normalized representation of one VEVENT from a
// release-schedule feed, before recurrence expansion. Releases are
// calendar-date entities: Start/End are UTC midnights and the time-of-day
// of the underlying VEVENT is discarded.
type ReleaseEvent struct {
	Source Source

	UID     string
	Summary string
	Status  string // first CATEGORIES value, else the VEVENT STATUS

	Start time.Time
	End   time.Time

	RawRRule string
	ExDates  []time.Time
}

// Parse parses a single ICS payload into release events. Recurrence rules
// are recorded but not expanded here; see expand.go.
//
// VEVENTs missing a UID or DTSTART are logged and skipped rather than
// failing the whole feed.
func Parse(src Source, body []byte) ([]ReleaseEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("feed parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]ReleaseEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Warn("feed vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("feed parse completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ReleaseEvent, error) {
	var out ReleaseEvent
	out.Source = src

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	// Status category: prefer the first CATEGORIES value, fall back to the
	// iCalendar STATUS (CONFIRMED/TENTATIVE/CANCELLED).
	if p := ve.GetProperty(ical.ComponentProperty(ical.PropertyCategories)); p != nil && p.Value != "" {
		out.Status = strings.TrimSpace(strings.SplitN(p.Value, ",", 2)[0])
	} else if p := ve.GetProperty(ical.ComponentProperty(ical.PropertyStatus)); p != nil {
		out.Status = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return out, errors.New("missing or invalid DTSTART")
		}
	}
	out.Start = dateOnly(start)

	// DTEND is exclusive per RFC 5545 when it falls on a midnight (the
	// all-day convention): a one-day release has DTEND = DTSTART + 1 day.
	// Normalize to an inclusive end date; absent or degenerate DTEND
	// collapses to the start date.
	out.End = out.Start
	end, err := ve.GetEndAt()
	if err != nil {
		end, err = ve.GetAllDayEndAt()
	}
	if err == nil {
		incl := dateOnly(end)
		if end.Equal(incl) && incl.After(out.Start) {
			incl = incl.AddDate(0, 0, -1)
		}
		if incl.After(out.Start) {
			out.End = incl
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times, comma-separated values).
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseICSTime parses a basic ICS date/date-time string (EXDATE values).
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.UTC)
	}

	// Date-only, e.g., 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.UTC)
}

package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "relboard/internal/log"
	"relboard/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig controls how release events are expanded into concrete
// releases.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive date window within which
	// recurring release trains are materialized.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap against runaway RRULEs.
	// If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded releases plus truncation info.
type ExpandResult struct {
	Releases []model.Release
	// TruncatedUIDs records events that hit the MaxOccurrencesPerEvent cap.
	TruncatedUIDs []string
}

// Expand turns feed events into layout-ready releases. Non-recurring events
// map 1:1 (the UID becomes the release id). Recurring events — release
// trains — are expanded via their RRULE within [RangeStart, RangeEnd],
// honoring EXDATE; each occurrence keeps the span length of the base event
// and gets an id of the form "uid@YYYY-MM-DD" so ids stay unique and stable
// across refreshes.
func Expand(events []ReleaseEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult
	result.Releases = make([]model.Release, 0, len(events))

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	for _, ev := range events {
		if ev.RawRRule == "" {
			// Single release: keep it even when outside the range; the
			// layout engine clamps, it never drops.
			result.Releases = append(result.Releases, model.Release{
				ID:     ev.UID,
				Label:  ev.Summary,
				Status: ev.Status,
				Start:  ev.Start,
				End:    ev.End,
			})
			continue
		}

		occ, truncated := expandTrain(ev, cfg)
		result.Releases = append(result.Releases, occ...)
		if truncated {
			result.TruncatedUIDs = append(result.TruncatedUIDs, ev.UID)
			appLog.Warn("expand: release train truncated at cap",
				"uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	return result, nil
}

func expandTrain(ev ReleaseEvent, cfg ExpandConfig) ([]model.Release, bool) {
	out := make([]model.Release, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(dateOnly(ex))
	}

	spanDays := int(ev.End.Sub(ev.Start).Hours() / 24)

	occTimes := set.Between(cfg.RangeStart, cfg.RangeEnd, true)
	truncated := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		truncated = true
	}

	for _, t := range occTimes {
		start := dateOnly(t)
		out = append(out, model.Release{
			ID:     fmt.Sprintf("%s@%s", ev.UID, start.Format(model.DateLayout)),
			Label:  ev.Summary,
			Status: ev.Status,
			Start:  start,
			End:    start.AddDate(0, 0, spanDays),
		})
	}

	return out, truncated
}

package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for release dates (ISO-8601 calendar date).
const DateLayout = "2006-01-02"

// Release is the dated entity the timeline engine lays out. Start/End are
// normalized to UTC midnight; End is always >= Start. Label and Status are
// display metadata and never enter layout math.
type Release struct {
	ID     string
	Label  string
	Status string

	Start time.Time
	End   time.Time
}

// ReleaseInput is the boundary shape consumed from the data-fetching layer.
// Dates are ISO-8601 strings; either date may be empty as long as the other
// is set (a single target date collapses to Start == End).
type ReleaseInput struct {
	ID             string `json:"id"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	Label          string `json:"label"`
	StatusCategory string `json:"statusCategory"`
}

// ParseRelease validates and converts one boundary record. Malformed dates
// and inverted ranges are rejected with an error naming the offending id;
// nothing is silently swapped or clamped.
func ParseRelease(in ReleaseInput) (Release, error) {
	if in.ID == "" {
		return Release{}, fmt.Errorf("release without id")
	}
	if in.StartDate == "" && in.EndDate == "" {
		return Release{}, fmt.Errorf("release %q: no startDate or endDate", in.ID)
	}

	var start, end time.Time
	var err error

	if in.StartDate != "" {
		start, err = parseDate(in.StartDate)
		if err != nil {
			return Release{}, fmt.Errorf("release %q: invalid startDate %q: %w", in.ID, in.StartDate, err)
		}
	}
	if in.EndDate != "" {
		end, err = parseDate(in.EndDate)
		if err != nil {
			return Release{}, fmt.Errorf("release %q: invalid endDate %q: %w", in.ID, in.EndDate, err)
		}
	}

	// Single-date records collapse to a zero-length span.
	if in.StartDate == "" {
		start = end
	}
	if in.EndDate == "" {
		end = start
	}

	if end.Before(start) {
		return Release{}, fmt.Errorf("release %q: endDate %s is before startDate %s",
			in.ID, end.Format(DateLayout), start.Format(DateLayout))
	}

	return Release{
		ID:     in.ID,
		Label:  in.Label,
		Status: in.StatusCategory,
		Start:  start,
		End:    end,
	}, nil
}

// ParseReleases converts a batch, failing fast on the first invalid record.
func ParseReleases(ins []ReleaseInput) ([]Release, error) {
	out := make([]Release, 0, len(ins))
	for _, in := range ins {
		r, err := ParseRelease(in)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Validate re-checks the Release invariants for entities constructed
// directly rather than through ParseRelease.
func (r Release) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("release without id")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("release %q: missing start or end date", r.ID)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("release %q: end date %s is before start date %s",
			r.ID, r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

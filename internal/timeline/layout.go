// Package timeline computes the release timeline layout: the visible date
// window and its columns for a zoom level, pixel geometry for each dated
// release, non-overlapping row assignment, the today marker, and the
// calendar month grid. It is a pure library: no I/O, no shared state, and
// no wall-clock reads — "now" is always an injected parameter, so identical
// inputs always produce identical output.
package timeline

import (
	"time"

	"relboard/internal/model"
)

// Options carries the injectable layout parameters.
type Options struct {
	// WeekStart is the first day of the week, shared by week columns and
	// the calendar grid.
	WeekStart WeekStart

	// PixelsPerColumn is the per-zoom column width table. Zero values are
	// filled from DefaultPixelScale.
	PixelsPerColumn PixelScale

	// MinBarWidthPx is the visual floor for bar widths, keeping
	// zero-length spans clickable. Defaults to 10.
	MinBarWidthPx float64

	// Now is the reference time for the today column flag and marker.
	// Defaults to time.Now() when zero; tests should always set it.
	Now time.Time
}

func (o Options) normalized() Options {
	if o.PixelsPerColumn.Day <= 0 {
		o.PixelsPerColumn.Day = DefaultPixelScale.Day
	}
	if o.PixelsPerColumn.Week <= 0 {
		o.PixelsPerColumn.Week = DefaultPixelScale.Week
	}
	if o.PixelsPerColumn.Month <= 0 {
		o.PixelsPerColumn.Month = DefaultPixelScale.Month
	}
	if o.MinBarWidthPx <= 0 {
		o.MinBarWidthPx = 10
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Layout is the complete output of one pipeline pass.
type Layout struct {
	Window  Window
	Columns []Column
	Bars    []Bar

	TotalWidthPx float64

	// TodayPx is the today marker offset; HasToday is false when today
	// falls outside the window.
	TodayPx  float64
	HasToday bool
}

// Build runs the full layout pipeline: plan the window and columns, map
// each release to pixel geometry, assign non-overlapping rows, and locate
// the today marker. Bars come back in input order with Row populated.
//
// An empty release list is valid and yields empty (non-nil) collections.
// Invalid releases (inverted ranges) abort with a descriptive error.
func Build(releases []model.Release, anchor time.Time, zoom ZoomLevel, opts Options) (Layout, error) {
	opts = opts.normalized()
	ppc := opts.PixelsPerColumn.For(zoom)

	plan := PlanWindow(anchor, zoom, opts.WeekStart, opts.Now)

	bars, err := Position(releases, plan.Window, plan.Columns, ppc, opts.MinBarWidthPx)
	if err != nil {
		return Layout{}, err
	}

	rows := AssignRows(bars)
	for i := range bars {
		bars[i].Row = rows[bars[i].Release.ID]
	}

	l := Layout{
		Window:       plan.Window,
		Columns:      plan.Columns,
		Bars:         bars,
		TotalWidthPx: float64(len(plan.Columns)) * ppc,
	}
	l.TodayPx, l.HasToday = LocateToday(plan.Window, plan.Columns, zoom, ppc, opts.Now)

	return l, nil
}

// Controller holds the caller-facing zoom and navigation state. Every
// change recomputes the full pipeline; previously returned layouts are
// invalidated, there is no incremental diffing.
type Controller struct {
	releases []model.Release
	anchor   time.Time
	zoom     ZoomLevel
	opts     Options
}

func NewController(releases []model.Release, anchor time.Time, zoom ZoomLevel, opts Options) *Controller {
	return &Controller{
		releases: releases,
		anchor:   anchor,
		zoom:     zoom,
		opts:     opts,
	}
}

func (c *Controller) Zoom() ZoomLevel { return c.zoom }

// ZoomIn narrows the column unit and rebuilds. A no-op rebuild at the Day
// clamp still returns a fresh layout.
func (c *Controller) ZoomIn() (Layout, error) {
	c.zoom = ZoomIn(c.zoom)
	return c.Rebuild()
}

func (c *Controller) ZoomOut() (Layout, error) {
	c.zoom = ZoomOut(c.zoom)
	return c.Rebuild()
}

// Navigate moves the anchor (e.g. to another month) and rebuilds.
func (c *Controller) Navigate(anchor time.Time) (Layout, error) {
	c.anchor = anchor
	return c.Rebuild()
}

// SetReleases replaces the working set on data refresh.
func (c *Controller) SetReleases(releases []model.Release) {
	c.releases = releases
}

func (c *Controller) Rebuild() (Layout, error) {
	return Build(c.releases, c.anchor, c.zoom, c.opts)
}

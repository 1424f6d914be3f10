package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relboard/internal/model"
)

func rel(id string, start, end time.Time) model.Release {
	return model.Release{ID: id, Label: id, Start: start, End: end}
}

func weekPlan(t *testing.T) Plan {
	t.Helper()
	return PlanWindow(Date(2025, time.January, 15), ZoomWeek, WeekStartMonday, Date(2025, time.January, 15))
}

func TestPositionContainment(t *testing.T) {
	p := weekPlan(t)
	totalWidth := float64(len(p.Columns)) * 100

	bars, err := Position([]model.Release{
		rel("a", Date(2025, time.January, 10), Date(2025, time.February, 10)),
	}, p.Window, p.Columns, 100, 10)
	require.NoError(t, err)
	require.Len(t, bars, 1)

	assert.GreaterOrEqual(t, bars[0].LeftPx, 0.0)
	assert.LessOrEqual(t, bars[0].End(), totalWidth)
	assert.Greater(t, bars[0].WidthPx, 10.0) // month-long span, well above the floor
}

func TestPositionProportions(t *testing.T) {
	p := weekPlan(t)
	require.Len(t, p.Columns, 19)
	totalWidth := 1900.0
	totalDays := float64(p.Window.Days()) // 121

	bars, err := Position([]model.Release{
		rel("a", Date(2025, time.January, 10), Date(2025, time.January, 10)),
	}, p.Window, p.Columns, 100, 10)
	require.NoError(t, err)

	// 40 days into the window, one-day span.
	assert.InDelta(t, 40.0/totalDays*totalWidth, bars[0].LeftPx, 1e-9)
	assert.InDelta(t, 1.0/totalDays*totalWidth, bars[0].WidthPx, 1e-9)
}

func TestPositionMinimumWidthFloor(t *testing.T) {
	p := weekPlan(t)

	bars, err := Position([]model.Release{
		rel("dot", Date(2025, time.January, 10), Date(2025, time.January, 10)),
	}, p.Window, p.Columns, 100, 50)
	require.NoError(t, err)

	// One day of 121 at 1900px total is ~15.7px; floor wins.
	assert.Equal(t, 50.0, bars[0].WidthPx)
}

func TestPositionClampsOutOfWindow(t *testing.T) {
	p := weekPlan(t)
	totalWidth := float64(len(p.Columns)) * 100

	bars, err := Position([]model.Release{
		rel("past", Date(2020, time.January, 1), Date(2020, time.January, 5)),
		rel("future", Date(2030, time.January, 1), Date(2030, time.January, 5)),
	}, p.Window, p.Columns, 100, 10)
	require.NoError(t, err)
	require.Len(t, bars, 2, "out-of-window entities are clamped, never dropped")

	assert.Equal(t, 0.0, bars[0].LeftPx)
	assert.InDelta(t, totalWidth, bars[1].End(), 1e-9)
	assert.LessOrEqual(t, bars[1].End(), totalWidth)
}

func TestPositionFloorStaysInsideStrip(t *testing.T) {
	// At month zoom the per-day density (600px / 121 days) is below the
	// 10px floor, so a one-day release on the window's last day would spill
	// past the right edge without the shift-back.
	p := PlanWindow(Date(2025, time.January, 15), ZoomMonth, WeekStartMonday, Date(2025, time.January, 15))
	require.Len(t, p.Columns, 4)
	totalWidth := float64(len(p.Columns)) * 150 // 600

	bars, err := Position([]model.Release{
		rel("edge", Date(2025, time.March, 31), Date(2025, time.March, 31)),
	}, p.Window, p.Columns, 150, 10)
	require.NoError(t, err)
	require.Len(t, bars, 1)

	assert.Equal(t, 10.0, bars[0].WidthPx)
	assert.GreaterOrEqual(t, bars[0].LeftPx, 0.0)
	assert.LessOrEqual(t, bars[0].End(), totalWidth)
	assert.InDelta(t, totalWidth, bars[0].End(), 1e-9)
}

func TestPositionInvalidRange(t *testing.T) {
	p := weekPlan(t)

	_, err := Position([]model.Release{
		rel("bad", Date(2025, time.February, 1), Date(2025, time.January, 30)),
	}, p.Window, p.Columns, 100, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestPositionEmptyInput(t *testing.T) {
	p := weekPlan(t)

	bars, err := Position(nil, p.Window, p.Columns, 100, 10)
	require.NoError(t, err)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestPositionPreservesInputOrder(t *testing.T) {
	p := weekPlan(t)

	bars, err := Position([]model.Release{
		rel("later", Date(2025, time.February, 1), Date(2025, time.February, 2)),
		rel("earlier", Date(2025, time.January, 1), Date(2025, time.January, 2)),
	}, p.Window, p.Columns, 100, 10)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "later", bars[0].Release.ID)
	assert.Equal(t, "earlier", bars[1].Release.ID)
}

package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relboard/internal/model"
)

func testOpts() Options {
	return Options{
		WeekStart:     WeekStartMonday,
		MinBarWidthPx: 10,
		Now:           Date(2025, time.January, 15),
	}
}

func TestBuildPipeline(t *testing.T) {
	releases := []model.Release{
		rel("a", Date(2025, time.January, 10), Date(2025, time.January, 20)),
		rel("b", Date(2025, time.January, 12), Date(2025, time.January, 14)),
		rel("c", Date(2025, time.March, 1), Date(2025, time.March, 5)),
	}

	l, err := Build(releases, Date(2025, time.January, 15), ZoomWeek, testOpts())
	require.NoError(t, err)

	assert.Len(t, l.Columns, 19)
	assert.Equal(t, 1900.0, l.TotalWidthPx)
	require.Len(t, l.Bars, 3)

	// a and b overlap in time, so they must not share a row.
	rowOf := map[string]int{}
	for _, b := range l.Bars {
		rowOf[b.Release.ID] = b.Row
	}
	assert.NotEqual(t, rowOf["a"], rowOf["b"])
	assert.Equal(t, 0, rowOf["c"])

	assert.True(t, l.HasToday)
}

func TestBuildIdempotent(t *testing.T) {
	releases := []model.Release{
		rel("a", Date(2025, time.January, 10), Date(2025, time.January, 20)),
		rel("b", Date(2025, time.January, 12), Date(2025, time.January, 14)),
	}

	first, err := Build(releases, Date(2025, time.January, 15), ZoomDay, testOpts())
	require.NoError(t, err)
	second, err := Build(releases, Date(2025, time.January, 15), ZoomDay, testOpts())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildEmptyReleases(t *testing.T) {
	l, err := Build(nil, Date(2025, time.January, 15), ZoomMonth, testOpts())
	require.NoError(t, err)

	assert.NotNil(t, l.Bars)
	assert.Empty(t, l.Bars)
	assert.NotEmpty(t, l.Columns)
}

func TestBuildRejectsInvalidRelease(t *testing.T) {
	releases := []model.Release{
		rel("broken", Date(2025, time.February, 1), Date(2025, time.January, 30)),
	}

	_, err := Build(releases, Date(2025, time.January, 15), ZoomWeek, testOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestBuildDefaultsApplied(t *testing.T) {
	l, err := Build(nil, Date(2025, time.January, 15), ZoomDay, Options{Now: Date(2025, time.January, 15)})
	require.NoError(t, err)
	// 121 day columns at the default 40px.
	assert.Equal(t, 121*DefaultPixelScale.Day, l.TotalWidthPx)
}

func TestControllerZoomClampAndRebuild(t *testing.T) {
	releases := []model.Release{
		rel("a", Date(2025, time.January, 10), Date(2025, time.January, 20)),
	}
	c := NewController(releases, Date(2025, time.January, 15), ZoomWeek, testOpts())

	l, err := c.ZoomIn()
	require.NoError(t, err)
	assert.Equal(t, ZoomDay, c.Zoom())
	assert.Len(t, l.Columns, 121)

	// Clamped: stays at Day but still recomputes.
	l2, err := c.ZoomIn()
	require.NoError(t, err)
	assert.Equal(t, ZoomDay, c.Zoom())
	assert.Equal(t, l, l2)

	l3, err := c.ZoomOut()
	require.NoError(t, err)
	assert.Equal(t, ZoomWeek, c.Zoom())
	assert.Len(t, l3.Columns, 19)
}

func TestControllerNavigate(t *testing.T) {
	c := NewController(nil, Date(2025, time.January, 15), ZoomMonth, testOpts())

	l, err := c.Navigate(Date(2025, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, Date(2025, time.May, 1), l.Window.Start)
	assert.Equal(t, Date(2025, time.August, 31), l.Window.End)
}

func TestControllerSetReleases(t *testing.T) {
	c := NewController(nil, Date(2025, time.January, 15), ZoomWeek, testOpts())

	l, err := c.Rebuild()
	require.NoError(t, err)
	assert.Empty(t, l.Bars)

	c.SetReleases([]model.Release{
		rel("a", Date(2025, time.January, 10), Date(2025, time.January, 20)),
	})
	l, err = c.Rebuild()
	require.NoError(t, err)
	assert.Len(t, l.Bars, 1)
}

package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relboard/internal/model"
)

func bar(id string, left, width float64) Bar {
	return Bar{Release: model.Release{ID: id}, LeftPx: left, WidthPx: width}
}

func assertNoRowOverlap(t *testing.T, bars []Bar, rows map[string]int) {
	t.Helper()
	for i := 0; i < len(bars); i++ {
		for j := i + 1; j < len(bars); j++ {
			a, b := bars[i], bars[j]
			if rows[a.Release.ID] != rows[b.Release.ID] {
				continue
			}
			disjoint := a.End() <= b.LeftPx || b.End() <= a.LeftPx
			assert.True(t, disjoint, "bars %s and %s share row %d but overlap",
				a.Release.ID, b.Release.ID, rows[a.Release.ID])
		}
	}
}

func maxRow(rows map[string]int) int {
	max := -1
	for _, r := range rows {
		if r > max {
			max = r
		}
	}
	return max
}

func TestAssignRowsNoOverlap(t *testing.T) {
	bars := []Bar{
		bar("a", 0, 50),
		bar("b", 10, 50),
		bar("c", 20, 50),
		bar("d", 60, 20),
		bar("e", 200, 10),
	}
	rows := AssignRows(bars)
	require.Len(t, rows, 5)
	assertNoRowOverlap(t, bars, rows)
}

func TestAssignRowsMinimality(t *testing.T) {
	t.Run("stacked triple", func(t *testing.T) {
		bars := []Bar{
			bar("a", 0, 50),
			bar("b", 10, 50),
			bar("c", 20, 50),
		}
		rows := AssignRows(bars)
		// All three overlap at px 20..50: exactly three rows, no more.
		assert.Equal(t, 2, maxRow(rows))
	})

	t.Run("chain reuses rows", func(t *testing.T) {
		bars := []Bar{
			bar("a", 0, 10),
			bar("b", 10, 10),
			bar("c", 20, 10),
		}
		rows := AssignRows(bars)
		// Half-open spans: touching bars share a single row.
		assert.Equal(t, 0, maxRow(rows))
	})

	t.Run("two disjoint clusters", func(t *testing.T) {
		bars := []Bar{
			bar("a", 0, 30),
			bar("b", 5, 30),
			bar("c", 100, 30),
			bar("d", 105, 30),
		}
		rows := AssignRows(bars)
		assert.Equal(t, 1, maxRow(rows))
		assertNoRowOverlap(t, bars, rows)
	})
}

func TestAssignRowsDeterministicTies(t *testing.T) {
	bars := []Bar{
		bar("beta", 0, 50),
		bar("alpha", 0, 50),
	}
	for i := 0; i < 5; i++ {
		rows := AssignRows(bars)
		assert.Equal(t, 0, rows["alpha"])
		assert.Equal(t, 1, rows["beta"])
	}
}

func TestAssignRowsEmpty(t *testing.T) {
	rows := AssignRows(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

// Scenario from the week-zoom resolution: two one-day releases, Jan 10 and
// Jan 12 2025, anchor Jan 15, 100px columns. Whether they share row 0
// depends only on whether their pixel spans overlap.
func TestAssignRowsWeekZoomScenario(t *testing.T) {
	p := PlanWindow(Date(2025, time.January, 15), ZoomWeek, WeekStartMonday, Date(2025, time.January, 15))
	releases := []model.Release{
		rel("A", Date(2025, time.January, 10), Date(2025, time.January, 10)),
		rel("B", Date(2025, time.January, 12), Date(2025, time.January, 12)),
	}

	t.Run("narrow floor keeps both on row 0", func(t *testing.T) {
		bars, err := Position(releases, p.Window, p.Columns, 100, 10)
		require.NoError(t, err)
		require.True(t, bars[0].End() <= bars[1].LeftPx, "spans must be disjoint at this floor")

		rows := AssignRows(bars)
		assert.Equal(t, 0, rows["A"])
		assert.Equal(t, 0, rows["B"])
	})

	t.Run("wide floor forces B to row 1", func(t *testing.T) {
		bars, err := Position(releases, p.Window, p.Columns, 100, 40)
		require.NoError(t, err)
		require.True(t, bars[0].End() > bars[1].LeftPx, "spans must overlap at this floor")

		rows := AssignRows(bars)
		assert.Equal(t, 0, rows["A"])
		assert.Equal(t, 1, rows["B"])
	})
}

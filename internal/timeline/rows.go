package timeline

import "sort"

// AssignRows assigns a vertical slot to each bar so that bars sharing a row
// never overlap horizontally. Greedy first-fit over bars sorted by left
// edge: a bar goes to the first row whose current end mark is at or before
// the bar's left edge, else it opens a new row. For interval graphs this
// uses the minimum possible number of rows.
//
// Bar spans are treated as half-open [LeftPx, LeftPx+WidthPx), so a bar may
// start exactly where another ends. Ties on the left edge break by release
// id to keep output deterministic.
func AssignRows(bars []Bar) map[string]int {
	assignment := make(map[string]int, len(bars))
	if len(bars) == 0 {
		return assignment
	}

	order := make([]int, len(bars))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ba, bb := bars[order[a]], bars[order[b]]
		if ba.LeftPx != bb.LeftPx {
			return ba.LeftPx < bb.LeftPx
		}
		return ba.Release.ID < bb.Release.ID
	})

	var rowEnds []float64
	for _, i := range order {
		b := bars[i]
		row := -1
		for r, end := range rowEnds {
			if end <= b.LeftPx {
				row = r
				break
			}
		}
		if row == -1 {
			row = len(rowEnds)
			rowEnds = append(rowEnds, 0)
		}
		rowEnds[row] = b.End()
		assignment[b.Release.ID] = row
	}

	return assignment
}

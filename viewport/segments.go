package viewport

import "git.sr.ht/~whereswaldon/timeline-chart/dataset"

// Segment is the rectangle drawn for one series of one column.
type Segment struct {
	// Series is the index of the series in the source, not the draw order.
	Series int
	Rect   Rect
}

// Segments appends the rectangles of row, centered at x inside graph, to dst
// in draw order: later segments are painted over earlier ones.
//
// In Overlap mode the values are sorted ascending, so the largest bar is
// emitted first and every smaller one cuts into it from the top. Stack piles
// the series bottom-up in source order. SideBySide gives every series an
// equal slice of the column.
func Segments(dst []Segment, mode dataset.Mode, row dataset.Row, x float32, graph Rect, maxValue float64, barWidth float32) []Segment {
	n := len(row.Values)
	if n == 0 {
		return dst
	}
	height := func(v float64) float32 {
		if maxValue <= 0 || v <= 0 {
			return 0
		}
		return graph.Dy() * float32(v/maxValue)
	}
	left := x - barWidth/2
	bottom := graph.Max.Y
	switch mode {
	case dataset.Stack:
		for j := 0; j < n; j++ {
			h := height(row.Values[j])
			dst = append(dst, Segment{
				Series: int(row.Order[j]),
				Rect:   R(left, bottom-h, left+barWidth, bottom),
			})
			bottom -= h
		}
	case dataset.SideBySide:
		slot := barWidth / float32(n)
		for j := 0; j < n; j++ {
			x1 := left + slot*float32(j)
			dst = append(dst, Segment{
				Series: int(row.Order[j]),
				Rect:   R(x1, bottom-height(row.Values[j]), x1+slot, bottom),
			})
		}
	default:
		for j := n - 1; j >= 0; j-- {
			dst = append(dst, Segment{
				Series: int(row.Order[j]),
				Rect:   R(left, bottom-height(row.Values[j]), left+barWidth, bottom),
			})
		}
	}
	return dst
}

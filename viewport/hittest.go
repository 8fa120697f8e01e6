package viewport

import (
	"gioui.org/f32"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
)

// Hit is a resolved tap.
type Hit struct {
	Index     int
	Timestamp int64
	// Series is the tapped series, or -1 when the tap selects the column as
	// a whole (a tap on the footer below it).
	Series int
}

// HitTest resolves a tap at p. offset is the scroll offset the tap was made
// at. Taps outside the view, between columns, or above every segment of a
// column resolve to nothing.
func (g Geometry) HitTest(s *dataset.Snapshot, a Areas, offset float32, p f32.Point) (Hit, bool) {
	if !a.View.Contains(p) || s.Len() == 0 {
		return Hit{}, false
	}
	touched := offset + (a.CenterX() - p.X)
	i, ok := g.IndexAt(s.Len(), touched)
	if !ok {
		return Hit{}, false
	}
	hit := Hit{Index: i, Timestamp: s.Timestamp(i), Series: -1}
	if a.Footer.Contains(p) {
		return hit, true
	}
	x := g.ColumnCenter(a.CenterX(), offset, s.Len(), i)
	segments := Segments(nil, s.Mode(), s.Row(i), x, a.Graph, s.MaxValue(), g.BarWidth)
	// Walk from the topmost segment down.
	for j := len(segments) - 1; j >= 0; j-- {
		if segments[j].Rect.Contains(p) {
			hit.Series = segments[j].Series
			return hit, true
		}
	}
	return Hit{}, false
}

// Package viewport maps chart data onto the screen: scroll offsets to
// columns and back, the visible window of columns, per-series bar rectangles
// and tap resolution.
//
// Scroll offsets grow towards older data. Offset 0 centers the most recent
// row; offset MaxOffset centers the oldest.
package viewport

import (
	"math"

	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
)

// Geometry holds the column sizing of a chart.
type Geometry struct {
	BarWidth   float32
	BarSpacing float32
}

// Pitch is the distance between the centers of neighbouring columns.
func (g Geometry) Pitch() float32 {
	return g.BarWidth + g.BarSpacing
}

// MaxOffset is the largest scroll offset for a dataset of n rows.
func (g Geometry) MaxOffset(n int) float32 {
	if n < 2 {
		return 0
	}
	return g.Pitch() * float32(n-1)
}

// IndexAt returns the row under the center of the viewport at offset. Offsets
// between two bars report false.
func (g Geometry) IndexAt(n int, offset float32) (int, bool) {
	pitch := g.Pitch()
	if n == 0 || pitch <= 0 {
		return 0, false
	}
	half := g.BarWidth / 2
	if zone := float32(math.Mod(float64(offset+half), float64(pitch))); zone > g.BarWidth {
		return 0, false
	}
	i := n - 1 - int(ceil((offset-half)/pitch))
	return clamp(i, 0, n-1), true
}

// NearestIndexAt is like IndexAt but resolves offsets between bars to the
// closest column.
func (g Geometry) NearestIndexAt(n int, offset float32) (int, bool) {
	pitch := g.Pitch()
	if n == 0 || pitch <= 0 {
		return 0, false
	}
	return clamp(n-1-int(round(offset/pitch)), 0, n-1), true
}

// OffsetForIndex is the offset that centers row i.
func (g Geometry) OffsetForIndex(n, i int) float32 {
	return g.Pitch() * float32(n-1-i)
}

// TimestampAt returns the timestamp of the column centered at offset, or
// dataset.None when the center falls between bars.
func (g Geometry) TimestampAt(s *dataset.Snapshot, offset float32) int64 {
	i, ok := g.IndexAt(s.Len(), offset)
	if !ok {
		return dataset.None
	}
	return s.Timestamp(i)
}

// NearestTimestampAt returns the timestamp of the column closest to offset,
// or dataset.None for an empty snapshot.
func (g Geometry) NearestTimestampAt(s *dataset.Snapshot, offset float32) int64 {
	i, ok := g.NearestIndexAt(s.Len(), offset)
	if !ok {
		return dataset.None
	}
	return s.Timestamp(i)
}

// OffsetFor returns the offset centering the row stored at timestamp.
func (g Geometry) OffsetFor(s *dataset.Snapshot, timestamp int64) (float32, bool) {
	i, ok := s.Index(timestamp)
	if !ok {
		return 0, false
	}
	return g.OffsetForIndex(s.Len(), i), true
}

// ColumnCenter is the horizontal center of row i when the viewport center is
// at centerX and scrolled to offset.
func (g Geometry) ColumnCenter(centerX, offset float32, n, i int) float32 {
	return centerX + offset - g.Pitch()*float32(n-1-i)
}

// MaxVisible is the number of columns needed to cover width, counting the
// partial columns cut by both edges.
func (g Geometry) MaxVisible(width float32) int {
	pitch := g.Pitch()
	if pitch <= 0 {
		return 0
	}
	return int(ceil(width/pitch)) + 2
}

// Highlighted reports whether a column centered at x straddles centerX.
func (g Geometry) Highlighted(x, centerX float32) bool {
	half := g.BarWidth / 2
	return x-half < centerX && x+half > centerX
}

// Viewport tracks the window of visible columns. The window is only
// recomputed when its inputs change.
type Viewport struct {
	Geometry
	// Width is the width of the plotting area.
	Width float32

	memo struct {
		valid       bool
		geom        Geometry
		width       float32
		rows        int
		offset      float32
		first, last int
	}
	computations int
}

// VisibleRange returns the inclusive range of row indexes that may intersect
// the plotting area. An empty dataset yields first > last.
func (v *Viewport) VisibleRange(rows int, offset float32) (first, last int) {
	m := &v.memo
	if m.valid && m.rows == rows && m.offset == offset && m.width == v.Width && m.geom == v.Geometry {
		return m.first, m.last
	}
	v.computations++
	first, last = 0, -1
	if rows > 0 && v.Pitch() > 0 {
		center := rows - 1 - int(round(offset/v.Pitch()))
		half := v.MaxVisible(v.Width) / 2
		first = clamp(center-half, 0, rows-1)
		last = clamp(center+half, 0, rows-1)
	}
	m.valid = true
	m.geom = v.Geometry
	m.width = v.Width
	m.rows = rows
	m.offset = offset
	m.first, m.last = first, last
	return first, last
}

// Invalidate forces the next VisibleRange call to recompute.
func (v *Viewport) Invalidate() {
	v.memo.valid = false
}

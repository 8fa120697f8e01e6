package chart

import (
	"image/color"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// Fill is a solid rectangle.
type Fill struct {
	Rect  viewport.Rect
	Color color.NRGBA
}

// Bar is one series segment of a column.
type Bar struct {
	Rect        viewport.Rect
	Color       color.NRGBA
	Series      int
	Timestamp   int64
	Highlighted bool
}

// Path is a closed polygon.
type Path struct {
	Points []f32.Point
	Color  color.NRGBA
}

// Label is a tick label with its colour.
type Label struct {
	viewport.Label
	Color color.NRGBA
}

// Frame is everything needed to paint the chart once, in paint order:
// backgrounds, bars, indicator, labels, then the edge glow.
type Frame struct {
	Bounds           viewport.Rect
	GraphBackground  Fill
	FooterBackground Fill
	Bars             []Bar
	Indicator        Path
	Labels           []Label
	// Glow holds the overscroll glow of the oldest and newest edges in
	// [0, 1].
	Glow      [2]float32
	GlowColor color.NRGBA
	// Zoom is the scale divisor of the bars during the transition, 1 at
	// rest. The bars are already scaled about Pivot.
	Zoom  float32
	Pivot f32.Point
}

var (
	labelOnDark  = color.NRGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}
	labelOnLight = color.NRGBA{R: 0x42, G: 0x42, B: 0x42, A: 0xff}
)

// Frame builds the draw list for the current state. Call Update first.
func (c *Chart) Frame() Frame {
	s := c.shared.Load()
	snap := s.snapshot
	offset := c.machine.Offset()
	zoom := c.machine.Zoom()
	f := Frame{
		Bounds:           c.bounds,
		GraphBackground:  Fill{Rect: c.areas.Graph, Color: c.opts.GraphBackground},
		FooterBackground: Fill{Rect: c.areas.Footer, Color: c.opts.FooterBackground},
		Glow:             c.machine.Glow(),
		GlowColor:        palette.Contrast(c.opts.GraphBackground),
		Zoom:             zoom,
		Pivot:            f32.Pt(c.areas.CenterX(), c.areas.Graph.Max.Y),
	}
	if len(c.areas.Indicator) > 0 {
		f.Indicator = Path{Points: c.areas.Indicator, Color: c.opts.FooterBackground}
	}
	n := snap.Len()
	if n == 0 {
		return f
	}

	cx := c.areas.CenterX()
	first, last := c.view.VisibleRange(n, offset)
	highlighting := c.machine.State() != gesture.Scrolling
	if !highlighting && c.lastTimestamp >= 0 {
		highlighting = c.view.TimestampAt(snap, offset) == c.lastTimestamp
	}
	var segments []viewport.Segment
	for i := last; i >= first; i-- {
		row := snap.Row(i)
		x := c.view.ColumnCenter(cx, offset, n, i)
		lit := highlighting && c.view.Highlighted(x, cx)
		segments = viewport.Segments(segments[:0], snap.Mode(), row, x, c.areas.Graph, snap.MaxValue(), c.view.BarWidth)
		for _, seg := range segments {
			colors := s.palette
			if lit {
				colors = s.highlight
			}
			var col color.NRGBA
			if seg.Series < len(colors) {
				col = colors[seg.Series]
			}
			rect := seg.Rect
			if zoom != 1 && zoom > 0 {
				rect = rect.ScaleAbout(f.Pivot, 1/zoom)
			}
			f.Bars = append(f.Bars, Bar{
				Rect:        rect,
				Color:       col,
				Series:      seg.Series,
				Timestamp:   row.Timestamp,
				Highlighted: lit,
			})
		}
	}

	labelColor := labelOnLight
	if palette.IsDark(c.opts.FooterBackground) {
		labelColor = labelOnDark
	}
	for _, l := range c.view.Labels(nil, snap, c.areas, offset, c.opts.Measurer, c.opts.Location, gesture.LabelAlpha(zoom)) {
		f.Labels = append(f.Labels, Label{Label: l, Color: labelColor})
	}
	return f
}

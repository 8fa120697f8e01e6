package viewport

import "gioui.org/f32"

// Areas splits the widget bounds into the plotting area and the footer that
// carries the tick labels.
type Areas struct {
	View   Rect
	Graph  Rect
	Footer Rect
	// Indicator is the triangle marking the current position, standing on
	// the footer and pointing into the graph. It is empty when the footer is
	// hidden.
	Indicator []f32.Point
}

// Layout computes the areas for the given bounds. footerHeight is ignored
// unless showFooter is set.
func Layout(bounds Rect, showFooter bool, footerHeight, barWidth float32) Areas {
	a := Areas{View: bounds, Graph: bounds}
	if !showFooter || footerHeight <= 0 {
		return a
	}
	footerHeight = min(footerHeight, bounds.Dy())
	a.Graph.Max.Y = bounds.Max.Y - footerHeight
	a.Footer = R(bounds.Min.X, a.Graph.Max.Y, bounds.Max.X, bounds.Max.Y)

	w := barWidth / 2.8
	h := barWidth / 4
	cx := a.Graph.Center().X
	top := a.Footer.Min.Y
	a.Indicator = []f32.Point{
		f32.Pt(cx-w/2, top),
		f32.Pt(cx, top-h),
		f32.Pt(cx+w/2, top),
	}
	return a
}

// CenterX is the horizontal centerline used for selection.
func (a Areas) CenterX() float32 {
	return a.Graph.Center().X
}

package viewport

import "gioui.org/f32"

// Rect is an axis aligned rectangle in pixels. Min is inclusive and Max is
// exclusive.
type Rect struct {
	Min, Max f32.Point
}

// R builds a rectangle from its edges.
func R(x0, y0, x1, y1 float32) Rect {
	return Rect{Min: f32.Pt(x0, y0), Max: f32.Pt(x1, y1)}
}

func (r Rect) Dx() float32 {
	return r.Max.X - r.Min.X
}

func (r Rect) Dy() float32 {
	return r.Max.Y - r.Min.Y
}

func (r Rect) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

func (r Rect) Contains(p f32.Point) bool {
	return r.Min.X <= p.X && p.X < r.Max.X && r.Min.Y <= p.Y && p.Y < r.Max.Y
}

// Center is the midpoint of the rectangle.
func (r Rect) Center() f32.Point {
	return f32.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// ScaleAbout scales the rectangle by s around pivot.
func (r Rect) ScaleAbout(pivot f32.Point, s float32) Rect {
	scale := func(p f32.Point) f32.Point {
		return pivot.Add(p.Sub(pivot).Mul(s))
	}
	return Rect{Min: scale(r.Min), Max: scale(r.Max)}
}

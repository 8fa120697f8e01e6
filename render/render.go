// Package render rasterizes chart frames without a window.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"gioui.org/f32"
	"github.com/fogleman/gg"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// GlowWidth is the fraction of the graph width covered by a full edge glow.
const GlowWidth = 0.12

// Measurer sizes labels with the face Draw uses. It is not safe for
// concurrent use.
type Measurer struct {
	dc *gg.Context
}

var _ viewport.Measurer = (*Measurer)(nil)

func NewMeasurer() *Measurer {
	return &Measurer{dc: gg.NewContext(1, 1)}
}

func (m *Measurer) Measure(text string, _ dataset.TickFormat) f32.Point {
	w, h := m.dc.MeasureString(text)
	return f32.Pt(float32(w), float32(h))
}

// Image paints f onto a new image the size of its bounds.
func Image(f chart.Frame) image.Image {
	w := int(f.Bounds.Max.X + 0.5)
	h := int(f.Bounds.Max.Y + 0.5)
	dc := gg.NewContext(max(w, 1), max(h, 1))
	Draw(dc, f)
	return dc.Image()
}

// PNG encodes the rendering of f to w.
func PNG(w io.Writer, f chart.Frame) error {
	dc := gg.NewContextForImage(Image(f))
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed encoding png: %w", err)
	}
	return nil
}

// Draw paints f onto dc in paint order.
func Draw(dc *gg.Context, f chart.Frame) {
	fill(dc, f.GraphBackground)
	fill(dc, f.FooterBackground)
	for _, b := range f.Bars {
		fill(dc, chart.Fill{Rect: b.Rect, Color: b.Color})
	}
	if len(f.Indicator.Points) > 2 {
		dc.NewSubPath()
		for _, p := range f.Indicator.Points {
			dc.LineTo(float64(p.X), float64(p.Y))
		}
		dc.ClosePath()
		dc.SetColor(f.Indicator.Color)
		dc.Fill()
	}
	for _, l := range f.Labels {
		if l.Alpha <= 0 {
			continue
		}
		c := l.Color
		c.A = uint8(float32(c.A) * min(l.Alpha, 1))
		dc.SetColor(c)
		dc.DrawStringAnchored(l.Text, float64(l.Center.X), float64(l.Center.Y), 0.5, 0.5)
	}
	graph := f.GraphBackground.Rect
	glow(dc, graph, f.Glow[gesture.Oldest], f.GlowColor, true)
	glow(dc, graph, f.Glow[gesture.Newest], f.GlowColor, false)
}

func fill(dc *gg.Context, f chart.Fill) {
	if f.Rect.Empty() || f.Color.A == 0 {
		return
	}
	r := f.Rect
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.SetColor(f.Color)
	dc.Fill()
}

// glow shades one edge of the graph, fading towards the middle.
func glow(dc *gg.Context, graph viewport.Rect, amount float32, c color.NRGBA, left bool) {
	if amount <= 0 || graph.Empty() {
		return
	}
	width := float64(graph.Dx()) * GlowWidth * float64(min(amount, 1))
	x0, x1 := float64(graph.Min.X), float64(graph.Min.X)+width
	if !left {
		x0, x1 = float64(graph.Max.X), float64(graph.Max.X)-width
	}
	edge := c
	edge.A = uint8(float32(c.A) * 0.5 * min(amount, 1))
	faded := c
	faded.A = 0
	grad := gg.NewLinearGradient(x0, 0, x1, 0)
	grad.AddColorStop(0, edge)
	grad.AddColorStop(1, faded)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(min(x0, x1), float64(graph.Min.Y), width, float64(graph.Dy()))
	dc.Fill()
}

package main

import (
	"image"
	"image/color"
	"time"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/render"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// ChartWidget lays out a chart and feeds it pointer input.
type ChartWidget struct {
	Chart *chart.Chart
	// epoch converts pointer event times into wall clock times.
	epoch time.Time
	scale float32
}

func (w *ChartWidget) Update(gtx C) {
	if s := gtx.Metric.PxPerSp; s != w.scale {
		w.scale = s
		w.Chart.SetMeasurer(viewport.ApproxMeasurer{Scale: s})
	}
	w.Chart.Resize(viewport.R(0, 0, float32(gtx.Constraints.Max.X), float32(gtx.Constraints.Max.Y)))
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Scroll,
			ScrollX: pointer.ScrollRange{Min: -1e6, Max: 1e6},
			ScrollY: pointer.ScrollRange{Min: -1e6, Max: 1e6},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		if w.epoch.IsZero() {
			w.epoch = gtx.Now.Add(-pe.Time)
		}
		ge := gesture.Event{
			ID:       int(pe.PointerID),
			Position: pe.Position,
			Time:     w.epoch.Add(pe.Time),
		}
		switch pe.Kind {
		case pointer.Press:
			ge.Kind = gesture.Press
		case pointer.Drag:
			ge.Kind = gesture.Drag
		case pointer.Release:
			ge.Kind = gesture.Release
		case pointer.Cancel:
			ge.Kind = gesture.Cancel
		case pointer.Scroll:
			// Wheels scroll towards the newest column when turned down.
			ge.Kind = gesture.Scroll
			ge.Delta = -(pe.Scroll.X + pe.Scroll.Y)
		default:
			continue
		}
		if w.Chart.Pointer(ge) && pe.Kind == pointer.Drag {
			gtx.Execute(pointer.GrabCmd{Tag: w, ID: pe.PointerID})
		}
	}
	w.Chart.Update(gtx.Now)
	if at, ok := w.Chart.NextDeadline(gtx.Now); ok {
		gtx.Execute(op.InvalidateCmd{At: at})
	}
}

func (w *ChartWidget) Layout(gtx C, th *material.Theme) D {
	w.Update(gtx)
	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, w)

	f := w.Chart.Frame()
	fillRect(gtx, f.GraphBackground)
	fillRect(gtx, f.FooterBackground)
	for _, b := range f.Bars {
		fillRect(gtx, chart.Fill{Rect: b.Rect, Color: b.Color})
	}
	if pts := f.Indicator.Points; len(pts) > 2 {
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(pts[0])
		for _, pt := range pts[1:] {
			p.LineTo(pt)
		}
		p.Close()
		paint.FillShape(gtx.Ops, f.Indicator.Color, clip.Outline{Path: p.End()}.Op())
	}
	for _, l := range f.Labels {
		layoutLabel(gtx, th, l)
	}
	graph := f.GraphBackground.Rect
	glow(gtx, graph, f.Glow[gesture.Oldest], f.GlowColor, true)
	glow(gtx, graph, f.Glow[gesture.Newest], f.GlowColor, false)
	return D{Size: size}
}

func toImage(r viewport.Rect) image.Rectangle {
	return image.Rect(
		int(r.Min.X+0.5), int(r.Min.Y+0.5),
		int(r.Max.X+0.5), int(r.Max.Y+0.5),
	)
}

func fillRect(gtx C, f chart.Fill) {
	if f.Rect.Empty() || f.Color.A == 0 {
		return
	}
	paint.FillShape(gtx.Ops, f.Color, clip.Rect(toImage(f.Rect)).Op())
}

func layoutLabel(gtx C, th *material.Theme, l chart.Label) {
	if l.Alpha <= 0 {
		return
	}
	c := l.Color
	c.A = uint8(float32(c.A) * min(l.Alpha, 1))
	lbl := material.Label(th, unit.Sp(viewport.TextSizes[l.Format]), l.Text)
	lbl.Color = c
	lbl.MaxLines = 1
	lbl.Alignment = text.Middle
	// The measured size is an estimate, so the box is wider than needed.
	box := image.Pt(int(l.Size.X*1.5+0.5), int(l.Size.Y+0.5))
	origin := l.Center.Sub(f32.Pt(float32(box.X)/2, float32(box.Y)/2))
	defer op.Offset(image.Pt(int(origin.X), int(origin.Y))).Push(gtx.Ops).Pop()
	gtx.Constraints = layout.Constraints{
		Min: image.Pt(box.X, 0),
		Max: image.Pt(box.X, gtx.Constraints.Max.Y),
	}
	lbl.Layout(gtx)
}

// glow shades one edge of the graph, fading towards the middle.
func glow(gtx C, graph viewport.Rect, amount float32, c color.NRGBA, left bool) {
	if amount <= 0 || graph.Empty() {
		return
	}
	width := graph.Dx() * render.GlowWidth * min(amount, 1)
	x0, x1 := graph.Min.X, graph.Min.X+width
	if !left {
		x0, x1 = graph.Max.X, graph.Max.X-width
	}
	edge := c
	edge.A = uint8(float32(c.A) * 0.5 * min(amount, 1))
	faded := c
	faded.A = 0
	area := viewport.R(min(x0, x1), graph.Min.Y, max(x0, x1), graph.Max.Y)
	defer clip.Rect(toImage(area)).Push(gtx.Ops).Pop()
	paint.LinearGradientOp{
		Stop1:  f32.Pt(x0, 0),
		Color1: edge,
		Stop2:  f32.Pt(x1, 0),
		Color2: faded,
	}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}

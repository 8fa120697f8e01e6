package main

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget/material"
	"gioui.org/x/component"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
)

// Legend tabulates the series of the selected column.
type Legend struct {
	grid component.GridState
}

func (l *Legend) Layout(gtx C, th *material.Theme, c *chart.Chart, names []string) D {
	colors := c.Palette()
	item, selected := c.Item(c.Selected())
	var total float64
	for _, v := range item.Series {
		total += v
	}
	rows := min(len(names), len(colors))

	table := component.Table(th, &l.grid)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	valueColWidth := gtx.Dp(100)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 2*valueColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		seriesNameCol
		valueCol
		shareCol
		numCols
	)
	return table.Layout(gtx, rows, numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			switch index {
			case colorCol:
				return min(colorColWidth, constraint)
			case seriesNameCol:
				return min(max(nameColWidth, 0), constraint)
			default:
				return min(valueColWidth, constraint)
			}
		},
		func(gtx C, index int) D {
			var lbl material.LabelStyle
			switch index {
			case colorCol:
				lbl = material.Body1(th, "Color")
			case seriesNameCol:
				lbl = material.Body1(th, "Series")
				lbl.Alignment = text.Middle
			case valueCol:
				lbl = material.Body1(th, "Selected")
				lbl.Alignment = text.End
			case shareCol:
				lbl = material.Body1(th, "Share")
				lbl.Alignment = text.End
			}
			lbl.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				},
				lbl.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			highlighted := selected && row < len(item.Series)
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				switch col {
				case colorCol:
					return layout.Center.Layout(gtx, func(gtx C) D {
						side := gtx.Dp(10)
						sz := image.Pt(side, side)
						paint.FillShape(gtx.Ops, colors[row], clip.Rect{Max: sz}.Op())
						return D{Size: sz}
					})
				case seriesNameCol:
					return material.Body2(th, names[row]).Layout(gtx)
				case valueCol:
					v := "-"
					if highlighted {
						v = fmt.Sprintf("%.2f", item.Series[row])
					}
					lbl := material.Body2(th, v)
					lbl.Alignment = text.End
					return lbl.Layout(gtx)
				case shareCol:
					v := "-"
					if highlighted && total > 0 {
						v = fmt.Sprintf("%.1f%%", 100*item.Series[row]/total)
					}
					lbl := material.Body2(th, v)
					lbl.Alignment = text.End
					return lbl.Layout(gtx)
				}
				return D{Size: gtx.Constraints.Min}
			})
			if row&1 != 0 {
				stripe := colors[row]
				stripe.A = 50
				if highlighted {
					stripe = palette.Highlights(colors)[row]
					stripe.A = 70
				}
				paint.FillShape(gtx.Ops, stripe, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}

package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

var modes = []dataset.Mode{dataset.Overlap, dataset.Stack, dataset.SideBySide}

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	loader *Loader
	expl   *explorer.Explorer
	chart  *chart.Chart

	widget      ChartWidget
	legend      Legend
	mode        widget.Enum
	followBtn   widget.Clickable
	explorerBtn widget.Clickable
	footer      widget.Bool
	reloadBtn   widget.Clickable
	addBtn      widget.Clickable
	updateBtn   widget.Clickable
	deleteBtn   widget.Clickable
	following   bool
	observed    datasource.Table
	editor      *editor
	message     string

	th           *material.Theme
	statusStream *stream.Stream[Status]
	status       Status
}

func NewUI(controller *stream.Controller, loader *Loader, expl *explorer.Explorer, c *chart.Chart) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	ui := &UI{
		loader:       loader,
		expl:         expl,
		chart:        c,
		widget:       ChartWidget{Chart: c},
		th:           th,
		mode:         widget.Enum{Value: c.Options().Mode.String()},
		following:    c.Options().FollowPosition,
		footer:       widget.Bool{Value: c.Options().ShowFooter},
		statusStream: stream.New(controller, loader.Status),
	}
	c.OnClick(func(ev chart.ItemEvent) {
		ui.message = describeClick(ev, ui.status.Columns)
	})
	c.OnLongClick(func(ev chart.ItemEvent) {
		ui.message = "pinned " + time.UnixMilli(ev.Item.Timestamp).Format(time.DateTime)
		c.SmoothScrollTo(ev.Item.Timestamp)
	})
	c.OnBackgroundClick(func() {
		ui.message = ""
	})
	return ui
}

func describeClick(ev chart.ItemEvent, columns []string) string {
	when := time.UnixMilli(ev.Item.Timestamp).Format(time.DateTime)
	if ev.Series < 0 || ev.Series >= len(ev.Item.Series) {
		return when
	}
	name := fmt.Sprintf("series %d", ev.Series)
	if ev.Series+1 < len(columns) {
		name = columns[ev.Series+1]
	}
	return fmt.Sprintf("%s: %s = %.2f", when, name, ev.Item.Series[ev.Series])
}

// Update the state of the UI in response to input and new statuses.
func (ui *UI) Update(gtx C) {
	ui.statusStream.ReadInto(gtx, &ui.status, Status{Loading: true})
	if ui.status.Table != ui.observed {
		if ui.status.Table == nil {
			ui.chart.Release()
		} else if err := ui.chart.Observe(ui.status.Table, nil); err != nil {
			log.Printf("failed observing %s: %v", ui.status.Source, err)
			ui.loader.Fail(err)
		}
		ui.observed = ui.status.Table
		ui.editor = nil
		if m, ok := ui.observed.(*datasource.Memory); ok {
			e := newEditor(m, uint64(time.Now().UnixNano()))
			ui.editor = &e
		}
	}
	if ui.footer.Update(gtx) {
		ui.chart.SetShowFooter(ui.footer.Value)
	}
	if ui.reloadBtn.Clicked(gtx) {
		ui.chart.Reload(true)
	}
	ui.updateEditor(gtx)
	if ui.mode.Update(gtx) {
		for _, m := range modes {
			if m.String() == ui.mode.Value {
				ui.chart.SetMode(m)
			}
		}
	}
	if ui.followBtn.Clicked(gtx) {
		ui.following = !ui.following
		ui.chart.SetFollowPosition(ui.following)
		if ui.following {
			ui.chart.SmoothScrollTo(ui.newest())
		}
	}
	if ui.explorerBtn.Clicked(gtx) {
		go func() {
			file, err := ui.expl.ChooseFile("csv")
			if err != nil {
				log.Printf("failed browsing for file: %v", err)
				ui.loader.Fail(fmt.Errorf("failed browsing for file: %w", err))
				return
			}
			ui.loader.LoadFile(file)
		}()
	}
}

// updateEditor applies the row edit buttons to an in-memory table.
func (ui *UI) updateEditor(gtx C) {
	if ui.editor == nil {
		return
	}
	var err error
	switch {
	case ui.addBtn.Clicked(gtx):
		var ts int64
		if ts, err = ui.editor.Add(); err == nil && ui.following {
			ui.chart.SmoothScrollTo(ts)
		}
	case ui.updateBtn.Clicked(gtx):
		err = ui.editor.Update(ui.chart.Selected())
	case ui.deleteBtn.Clicked(gtx):
		err = ui.editor.Remove(ui.chart.Selected())
	}
	if err != nil {
		log.Printf("failed editing rows: %v", err)
		ui.message = err.Error()
	}
}

// newest returns the timestamp of the last column.
func (ui *UI) newest() int64 {
	newest := dataset.None
	if ui.observed == nil {
		return newest
	}
	ui.observed.View(func(rows datasource.Rows) error {
		if n := rows.Len(); n > 0 {
			ts, err := rows.Int64(n-1, 0)
			if err == nil {
				newest = ts
			}
		}
		return nil
	})
	return newest
}

type TabStyle struct {
	state  *widget.Enum
	label  material.LabelStyle
	border widget.Border
	inset  layout.Inset
	value  string
	fill   color.NRGBA
}

func Tab(th *material.Theme, state *widget.Enum, value, display string) TabStyle {
	selected := state.Value == value
	ts := TabStyle{
		state: state,
		label: material.Body1(th, display),
		inset: layout.UniformInset(2),
		border: widget.Border{
			Width: 2,
			Color: th.ContrastBg,
		},
		value: value,
	}
	ts.label.Alignment = text.Middle
	if selected {
		ts.label.Color = th.ContrastFg
		ts.fill = th.ContrastBg
	}
	return ts
}

func (t TabStyle) Layout(gtx C) D {
	return t.inset.Layout(gtx, func(gtx C) D {
		return t.border.Layout(gtx, func(gtx C) D {
			return t.inset.Layout(gtx, func(gtx C) D {
				return t.state.Layout(gtx, t.value, func(gtx C) D {
					return layout.Background{}.Layout(gtx, func(gtx C) D {
						paint.FillShape(gtx.Ops, t.fill, clip.Rect{Max: gtx.Constraints.Min}.Op())
						return D{Size: gtx.Constraints.Min}
					}, t.label.Layout)
				})
			})
		})
	})
}

func (ui *UI) layoutToolbar(gtx C) D {
	children := make([]layout.FlexChild, 0, len(modes)+4)
	for _, m := range modes {
		children = append(children, layout.Flexed(1, Tab(ui.th, &ui.mode, m.String(), m.String()).Layout))
	}
	children = append(children,
		layout.Rigid(func(gtx C) D {
			icon := pauseIcon
			if !ui.following {
				icon = playIcon
			}
			return material.Clickable(gtx, &ui.followBtn, func(gtx C) D {
				return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
					gtx.Constraints.Min = image.Pt(gtx.Dp(24), gtx.Dp(24))
					return icon.Layout(gtx, ui.th.Fg)
				})
			})
		}),
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(2).Layout(gtx, material.Button(ui.th, &ui.explorerBtn, "Open CSV").Layout)
		}),
	)
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
}

func (ui *UI) layoutActions(gtx C) D {
	button := func(btn *widget.Clickable, label string) layout.FlexChild {
		return layout.Rigid(func(gtx C) D {
			return layout.UniformInset(2).Layout(gtx, material.Button(ui.th, btn, label).Layout)
		})
	}
	children := []layout.FlexChild{
		layout.Rigid(material.CheckBox(ui.th, &ui.footer, "Footer").Layout),
		button(&ui.reloadBtn, "Reload"),
	}
	if ui.editor != nil {
		children = append(children,
			button(&ui.addBtn, "Add"),
			button(&ui.updateBtn, "Update"),
			button(&ui.deleteBtn, "Delete"),
		)
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
}

func (ui *UI) statusText() string {
	switch {
	case ui.status.Err != nil:
		return ui.status.Err.Error()
	case ui.status.Loading:
		return "Loading..."
	case ui.message != "":
		return ui.message
	case ui.status.Source != "":
		return fmt.Sprintf("%s: %d columns", ui.status.Source, ui.chart.Len())
	}
	return "No data yet."
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutToolbar),
		layout.Rigid(ui.layoutActions),
		layout.Rigid(func(gtx C) D {
			l := material.Body2(ui.th, ui.statusText())
			if ui.status.Err != nil {
				l.Color = color.NRGBA{R: 150, A: 255}
			}
			return layout.UniformInset(4).Layout(gtx, l.Layout)
		}),
		layout.Flexed(1, func(gtx C) D {
			return ui.widget.Layout(gtx, ui.th)
		}),
		layout.Rigid(func(gtx C) D {
			if len(ui.status.Columns) < 2 {
				return D{}
			}
			gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(160))
			return ui.legend.Layout(gtx, ui.th, ui.chart, ui.status.Columns[1:])
		}),
	)
}

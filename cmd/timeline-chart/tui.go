package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/config"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// Terminal cells are treated as blocks of pixels so that the chart keeps
// its pixel geometry.
const (
	cellWidth  = 8
	cellHeight = 16
	// headerRows and statusRows frame the chart.
	headerRows = 1
	statusRows = 1
)

func newTUICommand(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Chart the source in the terminal",
		RunE: func(_ *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			src, err := flags.open(ctx)
			if err != nil {
				return err
			}
			defer src.Close()

			opts.Measurer = cellMeasurer{}
			opts.Sound = newBell(os.Stdout)
			c := chart.New(opts)
			defer c.Close()
			if err := c.Observe(src.Table, nil); err != nil {
				return err
			}
			model := newTUIModel(c, src.Name, src.columns())
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = program.Run()
			return err
		},
	}
}

// cellMeasurer sizes labels in whole terminal cells.
type cellMeasurer struct{}

func (cellMeasurer) Measure(text string, _ dataset.TickFormat) f32.Point {
	return f32.Pt(float32(utf8.RuneCountInString(text)*cellWidth), cellHeight)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type tuiModel struct {
	chart   *chart.Chart
	name    string
	columns []string

	width, height int
	mode          dataset.Mode
	following     bool
	pressed       bool
	message       string
	// now stamps input events; tests replace it.
	now func() time.Time
}

func newTUIModel(c *chart.Chart, name string, columns []string) *tuiModel {
	m := &tuiModel{
		chart:     c,
		name:      name,
		columns:   columns,
		mode:      c.Options().Mode,
		following: c.Options().FollowPosition,
		now:       time.Now,
	}
	c.OnClick(func(ev chart.ItemEvent) {
		m.message = describeClick(ev, m.columns)
	})
	c.OnBackgroundClick(func() {
		m.message = ""
	})
	return m
}

func (m *tuiModel) Init() tea.Cmd { return tickCmd() }

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.chart.Update(time.Time(msg))
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.bounds())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

// bounds is the chart area in cell pixels.
func (m *tuiModel) bounds() viewport.Rect {
	rows := max(m.height-headerRows-statusRows, 0)
	return viewport.R(0, 0, float32(m.width*cellWidth), float32(rows*cellHeight))
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pitch := m.chart.Geometry().Pitch()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		m.scroll(pitch)
	case "right", "l":
		m.scroll(-pitch)
	case "pgup":
		m.scroll(m.bounds().Dx())
	case "pgdown":
		m.scroll(-m.bounds().Dx())
	case "home":
		m.scroll(m.chart.MaxOffset())
	case "end":
		m.scroll(-m.chart.MaxOffset())
	case "m":
		m.mode = (m.mode + 1) % dataset.Mode(len(modes))
		m.chart.SetMode(m.mode)
	case "f":
		m.following = !m.following
		m.chart.SetFollowPosition(m.following)
	}
	return m, nil
}

// scroll moves the offset by delta pixels, towards older columns when
// positive.
func (m *tuiModel) scroll(delta float32) {
	if delta == 0 {
		return
	}
	m.chart.Pointer(gesture.Event{Kind: gesture.Scroll, Delta: delta, Time: m.now()})
}

// cellCenter converts a terminal cell to chart pixels.
func cellCenter(x, y int) f32.Point {
	return f32.Pt(
		float32(x*cellWidth)+cellWidth/2,
		float32((y-headerRows)*cellHeight)+cellHeight/2,
	)
}

func (m *tuiModel) handleMouse(msg tea.MouseMsg) {
	ev := gesture.Event{Position: cellCenter(msg.X, msg.Y), Time: m.now()}
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelLeft:
		if msg.Action == tea.MouseActionPress {
			m.scroll(3 * cellWidth)
		}
		return
	case msg.Button == tea.MouseButtonWheelDown || msg.Button == tea.MouseButtonWheelRight:
		if msg.Action == tea.MouseActionPress {
			m.scroll(-3 * cellWidth)
		}
		return
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		ev.Kind = gesture.Press
		m.pressed = true
	case msg.Action == tea.MouseActionMotion && m.pressed:
		ev.Kind = gesture.Drag
	case msg.Action == tea.MouseActionRelease && m.pressed:
		ev.Kind = gesture.Release
		m.pressed = false
	default:
		return
	}
	m.chart.Pointer(ev)
}

func (m *tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteByte('\n')
	b := m.bounds()
	rows := int(b.Dy()) / cellHeight
	if rows > 0 {
		f := m.chart.Frame()
		cells := rasterize(f, m.width, rows)
		overlayLabels(cells, f)
		for y, row := range cells {
			sb.WriteString(renderRow(row))
			if y < len(cells)-1 {
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(m.statusLine())
	return sb.String()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func (m *tuiModel) header() string {
	follow := "paused"
	if m.following {
		follow = "following"
	}
	left := headerStyle.Render(m.name) + dimStyle.Render(fmt.Sprintf("  %s  %s", m.mode, follow))
	right := dimStyle.Render("←/→ scroll  m mode  f follow  q quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *tuiModel) statusLine() string {
	if m.message != "" {
		return m.message
	}
	ts := m.chart.Selected()
	item, ok := m.chart.Item(ts)
	if !ok {
		return dimStyle.Render("nothing selected")
	}
	colors := m.chart.Palette()
	parts := []string{time.UnixMilli(ts).Format(time.DateTime)}
	for i, v := range item.Series {
		name := fmt.Sprintf("series %d", i)
		if i+1 < len(m.columns) {
			name = m.columns[i+1]
		}
		style := lipgloss.NewStyle()
		if i < len(colors) {
			style = style.Foreground(lipgloss.Color(config.FormatColor(opaque(colors[i]))))
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %.2f", name, v)))
	}
	return strings.Join(parts, "  ")
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xff
	return c
}

// cell is one terminal cell of the rasterized frame.
type cell struct {
	bg   color.NRGBA
	fg   color.NRGBA
	text rune
}

// rasterize samples the frame at the center of every cell.
func rasterize(f chart.Frame, cols, rows int) [][]cell {
	out := make([][]cell, rows)
	fills := make([]chart.Fill, 0, len(f.Bars)+2)
	fills = append(fills, f.GraphBackground, f.FooterBackground)
	for _, b := range f.Bars {
		fills = append(fills, chart.Fill{Rect: b.Rect, Color: b.Color})
	}
	for y := range out {
		out[y] = make([]cell, cols)
		for x := range out[y] {
			p := cellCenter(x, y+headerRows)
			c := &out[y][x]
			c.text = ' '
			for _, fl := range fills {
				if fl.Color.A != 0 && fl.Rect.Contains(p) {
					c.bg = fl.Color
				}
			}
		}
	}
	if pts := f.Indicator.Points; len(pts) > 0 {
		var tip f32.Point
		for _, p := range pts {
			if tip == (f32.Point{}) || p.Y < tip.Y {
				tip = p
			}
		}
		x := int(tip.X) / cellWidth
		y := int(tip.Y) / cellHeight
		if y >= 0 && y < rows && x >= 0 && x < cols {
			out[y][x].text = '▲'
			out[y][x].fg = f.Indicator.Color
		}
	}
	return out
}

// overlayLabels writes the footer labels into the cells they cover.
func overlayLabels(cells [][]cell, f chart.Frame) {
	for _, l := range f.Labels {
		if l.Alpha < 0.5 {
			continue
		}
		runes := []rune(l.Text)
		y := int(l.Center.Y) / cellHeight
		x := int(l.Center.X)/cellWidth - len(runes)/2
		if y < 0 || y >= len(cells) {
			continue
		}
		for i, r := range runes {
			if cx := x + i; cx >= 0 && cx < len(cells[y]) {
				cells[y][cx].text = r
				cells[y][cx].fg = l.Color
			}
		}
	}
}

// renderRow styles runs of cells sharing their colours.
func renderRow(row []cell) string {
	var sb strings.Builder
	for start := 0; start < len(row); {
		end := start + 1
		for end < len(row) && row[end].bg == row[start].bg && row[end].fg == row[start].fg {
			end++
		}
		var text strings.Builder
		for _, c := range row[start:end] {
			text.WriteRune(c.text)
		}
		style := lipgloss.NewStyle()
		if row[start].bg.A != 0 {
			style = style.Background(lipgloss.Color(config.FormatColor(opaque(row[start].bg))))
		}
		if row[start].fg.A != 0 {
			style = style.Foreground(lipgloss.Color(config.FormatColor(opaque(row[start].fg))))
		}
		sb.WriteString(style.Render(text.String()))
		start = end
	}
	return sb.String()
}

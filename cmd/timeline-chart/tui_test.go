package main

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"gioui.org/f32"
	tea "github.com/charmbracelet/bubbletea"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

func TestRasterize(t *testing.T) {
	bg := color.NRGBA{R: 0x10, A: 0xff}
	footer := color.NRGBA{G: 0x10, A: 0xff}
	bar := color.NRGBA{B: 0xff, A: 0xff}
	f := chart.Frame{
		GraphBackground:  chart.Fill{Rect: viewport.R(0, 0, 80, 32), Color: bg},
		FooterBackground: chart.Fill{Rect: viewport.R(0, 32, 80, 48), Color: footer},
		Bars: []chart.Bar{
			{Rect: viewport.R(16, 16, 32, 32), Color: bar},
		},
		Indicator: chart.Path{
			Points: []f32.Point{f32.Pt(36, 40), f32.Pt(44, 34), f32.Pt(52, 40)},
			Color:  color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		},
	}
	cells := rasterize(f, 10, 3)
	if len(cells) != 3 || len(cells[0]) != 10 {
		t.Fatalf("expected 3x10 cells, got %dx%d", len(cells), len(cells[0]))
	}
	if cells[0][2].bg != bg {
		t.Errorf("expected background above the bar, got %v", cells[0][2].bg)
	}
	if cells[1][2].bg != bar || cells[1][3].bg != bar {
		t.Errorf("expected the bar in row 1 columns 2 and 3, got %v and %v", cells[1][2].bg, cells[1][3].bg)
	}
	if cells[1][4].bg != bg {
		t.Errorf("expected background right of the bar, got %v", cells[1][4].bg)
	}
	if cells[2][5].text != '▲' || cells[2][5].bg != footer {
		t.Errorf("expected the indicator in the footer, got %q on %v", cells[2][5].text, cells[2][5].bg)
	}

	overlayLabels(cells, chart.Frame{Labels: []chart.Label{{
		Label: viewport.Label{Text: "12:00", Center: f32.Pt(40, 40), Alpha: 1},
		Color: footer,
	}}})
	var row strings.Builder
	for _, c := range cells[2] {
		row.WriteRune(c.text)
	}
	if got := row.String(); got != "   12:00  " {
		t.Errorf("expected the label centered in the footer, got %q", got)
	}
}

func TestRenderRowMergesRuns(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	row := []cell{{bg: red, text: 'a'}, {bg: red, text: 'b'}, {text: 'c'}}
	out := renderRow(row)
	if !strings.Contains(out, "ab") || !strings.Contains(out, "c") {
		t.Errorf("expected runs to keep their text, got %q", out)
	}
}

func newTestTUI(t *testing.T) (*tuiModel, *chart.Chart) {
	t.Helper()
	table := datasource.NewMemory("timestamp", "a", "b")
	for i := 0; i < 30; i++ {
		if err := table.Add([]any{int64(i * 1000), float64(i), float64(30 - i)}); err != nil {
			t.Fatalf("failed adding: %v", err)
		}
	}
	opts := chart.DefaultOptions()
	opts.Location = time.UTC
	opts.AnimateTransitions = false
	opts.BarWidth = 16
	opts.BarSpacing = 8
	opts.Measurer = cellMeasurer{}
	c := chart.New(opts)
	t.Cleanup(c.Close)
	if err := c.Observe(table, nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	m := newTUIModel(c, "test", []string{"timestamp", "a", "b"})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	deadline := time.After(5 * time.Second)
	for m.Update(tickMsg(time.Now())); !c.Loaded() || c.Len() != 30; m.Update(tickMsg(time.Now())) {
		select {
		case <-c.Results():
		case <-deadline:
			t.Fatalf("timed out loading")
		}
	}
	return m, c
}

func TestTUISelectsNewest(t *testing.T) {
	m, c := newTestTUI(t)
	if c.Selected() != 29000 {
		t.Errorf("expected newest column selected, got %d", c.Selected())
	}
	view := m.View()
	lines := strings.Split(view, "\n")
	if len(lines) != 20 {
		t.Errorf("expected the view to fill 20 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[len(lines)-1], "29.00") {
		t.Errorf("expected the status line to show the selected values, got %q", lines[len(lines)-1])
	}
}

func TestTUIKeys(t *testing.T) {
	m, c := newTestTUI(t)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tickMsg(time.Now()))
	if c.Selected() != 28000 {
		t.Errorf("expected left to select the previous column, got %d", c.Selected())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyHome})
	m.Update(tickMsg(time.Now()))
	if c.Selected() != 0 {
		t.Errorf("expected home to select the oldest column, got %d", c.Selected())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	if m.mode != dataset.Stack {
		t.Errorf("expected m to cycle to stack, got %v", m.mode)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected q to quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected a quit message")
	}
}

func TestTUIMouseWheel(t *testing.T) {
	m, c := newTestTUI(t)
	for i := 0; i < 3; i++ {
		m.Update(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	}
	m.Update(tickMsg(time.Now()))
	if c.Offset() != 9*cellWidth {
		t.Errorf("expected three wheel steps to scroll %d pixels, got %v", 9*cellWidth, c.Offset())
	}
	m.Update(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if c.Offset() != 6*cellWidth {
		t.Errorf("expected wheel down to scroll back, got %v", c.Offset())
	}
}

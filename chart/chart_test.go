package chart

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

var base = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return base.Add(time.Duration(ms) * time.Millisecond)
}

// makeTestTable returns a table of rows columns one second apart with two
// series: i and 2i.
func makeTestTable(t *testing.T, rows int) *datasource.Memory {
	t.Helper()
	m := datasource.NewMemory("timestamp", "a", "b")
	for i := 0; i < rows; i++ {
		if err := m.Add([]any{int64(i * 1000), float64(i), float64(2 * i)}); err != nil {
			t.Fatalf("failed adding row %d: %v", i, err)
		}
	}
	return m
}

// makeTestChart builds a 400x300 chart with a 48px pitch and no footer, so
// that offset 0 selects the newest row and 720 the oldest of sixteen.
func makeTestChart(t *testing.T, mutate func(*Options)) *Chart {
	t.Helper()
	opts := DefaultOptions()
	opts.BarWidth = 40
	opts.BarSpacing = 8
	opts.ShowFooter = false
	opts.AnimateTransitions = false
	opts.Location = time.UTC
	opts.Clock = func() time.Time { return base }
	if mutate != nil {
		mutate(&opts)
	}
	c := New(opts)
	t.Cleanup(c.Close)
	c.Resize(viewport.R(0, 0, 400, 300))
	return c
}

// waitFor drives the chart until cond holds.
func waitFor(t *testing.T, c *Chart, now time.Time, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		c.Update(now)
		if cond() {
			return
		}
		select {
		case <-c.inbox.Ready():
		case <-deadline:
			t.Fatalf("timed out waiting for the chart")
		}
	}
}

func waitForRows(t *testing.T, c *Chart, rows int) {
	t.Helper()
	waitFor(t, c, base, func() bool {
		return c.loaded && c.snapshot().Len() == rows
	})
}

type recorder struct {
	changed []Item
	user    []bool
	nothing int
}

func (r *recorder) SelectionChanged(item Item, fromUser bool) {
	r.changed = append(r.changed, item)
	r.user = append(r.user, fromUser)
}

func (r *recorder) NothingSelected() {
	r.nothing++
}

func TestChartSelectsAlongOffsets(t *testing.T) {
	c := makeTestChart(t, nil)
	rec := &recorder{}
	c.OnSelection(rec)
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)

	if c.MaxOffset() != 720 {
		t.Errorf("expected max offset 720, got %v", c.MaxOffset())
	}
	if got := c.Selected(); got != 15000 {
		t.Errorf("expected newest row selected, got %d", got)
	}
	if len(rec.changed) != 1 || rec.changed[0].Timestamp != 15000 || rec.user[0] {
		t.Fatalf("expected one programmatic selection of 15000, got %v %v", rec.changed, rec.user)
	}
	if s := rec.changed[0].Series; len(s) != 2 || s[0] != 15 || s[1] != 30 {
		t.Errorf("expected series [15 30], got %v", s)
	}

	if !c.ScrollTo(0) {
		t.Fatalf("expected scroll to oldest row")
	}
	c.Update(at(16))
	if c.Offset() != 720 {
		t.Errorf("expected offset 720, got %v", c.Offset())
	}
	if got := c.Selected(); got != 0 {
		t.Errorf("expected oldest row selected, got %d", got)
	}
	if len(rec.changed) != 2 || rec.changed[1].Timestamp != 0 {
		t.Errorf("expected a second selection of 0, got %v", rec.changed)
	}

	c.ScrollTo(14000)
	c.machine.ScrollTo(c.Offset() + 24)
	c.Update(at(32))
	if got := c.Selected(); got != dataset.None {
		t.Errorf("expected nothing selected between columns, got %d", got)
	}
	if rec.nothing != 1 {
		t.Errorf("expected one nothing selected event, got %d", rec.nothing)
	}

	if c.ScrollTo(99999) {
		t.Errorf("expected scroll to a missing timestamp to fail")
	}
	if c.SmoothScrollTo(99999) {
		t.Errorf("expected smooth scroll to a missing timestamp to fail")
	}
}

func TestChartEnsureSelectionSnaps(t *testing.T) {
	c := makeTestChart(t, func(o *Options) {
		o.EnsureSelection = true
	})
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	c.machine.ScrollTo(30)
	for ms := 16; ms < 3000 && (ms == 16 || c.State() != gesture.Idle); ms += 16 {
		c.Update(at(ms))
	}
	if c.Offset() != 48 {
		t.Errorf("expected to snap to 48, got %v", c.Offset())
	}
	if got := c.Selected(); got != 14000 {
		t.Errorf("expected 14000 selected, got %d", got)
	}
}

func TestSmoothScrollDefersSelection(t *testing.T) {
	c := makeTestChart(t, nil)
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	rec := &recorder{}
	c.OnSelection(rec)

	if !c.SmoothScrollTo(0) {
		t.Fatalf("expected smooth scroll to start")
	}
	for ms := 16; ms < 5000 && c.State() == gesture.Scrolling; ms += 16 {
		c.Update(at(ms))
		if c.State() == gesture.Scrolling && len(rec.changed)+rec.nothing > 0 {
			t.Fatalf("expected no selection events while scrolling, got %v", rec.changed)
		}
	}
	if c.State() != gesture.Idle {
		t.Fatalf("expected scroll to end, state %v", c.State())
	}
	if len(rec.changed) != 1 || rec.changed[0].Timestamp != 0 {
		t.Errorf("expected a single selection of 0 at the end, got %v", rec.changed)
	}
}

func TestSmoothScrollSuppressesHighlight(t *testing.T) {
	c := makeTestChart(t, nil)
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	if !c.SmoothScrollTo(0) {
		t.Fatalf("expected smooth scroll to start")
	}
	var midway int
	for ms := 16; ms < 5000 && c.State() == gesture.Scrolling; ms += 16 {
		c.Update(at(ms))
		if c.State() != gesture.Scrolling {
			break
		}
		f := c.Frame()
		for _, b := range f.Bars {
			if b.Highlighted && b.Timestamp != 15000 {
				t.Fatalf("expected no highlight away from the start column, got %d at %dms", b.Timestamp, ms)
			}
		}
		if off := c.Offset(); off > 48 && off < 672 {
			midway++
			for _, b := range f.Bars {
				if b.Highlighted {
					t.Fatalf("expected no highlighted bars at offset %v", off)
				}
			}
		}
	}
	if midway == 0 {
		t.Errorf("expected frames in the middle of the scroll")
	}
	var lit int
	for _, b := range c.Frame().Bars {
		if b.Highlighted {
			lit++
			if b.Timestamp != 0 {
				t.Errorf("expected the target column highlighted once settled, got %d", b.Timestamp)
			}
		}
	}
	if lit != 2 {
		t.Errorf("expected 2 highlighted bars after the scroll, got %d", lit)
	}
}

func TestObserveRejectsBadTables(t *testing.T) {
	c := makeTestChart(t, nil)
	if err := c.Observe(nil, nil); err == nil {
		t.Errorf("expected nil table to be rejected")
	}
	bad := datasource.NewMemory("timestamp", "a")
	if err := bad.Add([]any{"yesterday", 1.0}); err != nil {
		t.Fatalf("failed adding: %v", err)
	}
	if err := c.Observe(bad, nil); !errors.Is(err, datasource.ErrSchema) {
		t.Errorf("expected schema error, got %v", err)
	}
}

func tap(c *Chart, x, y float32, from, to int) {
	c.Pointer(gesture.Event{Kind: gesture.Press, Position: f32.Pt(x, y), Time: at(from)})
	c.Pointer(gesture.Event{Kind: gesture.Release, Position: f32.Pt(x, y), Time: at(to)})
}

func TestClicks(t *testing.T) {
	c := makeTestChart(t, nil)
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)

	var background int
	c.OnBackgroundClick(func() { background++ })
	tap(c, 200, 150, 0, 100)
	if background != 1 {
		t.Errorf("expected background click without click listeners, got %d", background)
	}

	var clicks []ItemEvent
	c.OnClick(func(ev ItemEvent) { clicks = append(clicks, ev) })
	tap(c, 200, 150, 200, 300)
	tap(c, 200, 100, 400, 500)
	tap(c, 224, 150, 600, 700)
	if len(clicks) != 2 {
		t.Fatalf("expected 2 column clicks, got %v", clicks)
	}
	if clicks[0].Item.Timestamp != 15000 || clicks[0].Series != 0 {
		t.Errorf("expected series 0 of 15000, got %+v", clicks[0])
	}
	if clicks[1].Series != 1 {
		t.Errorf("expected series 1 above the smaller bar, got %+v", clicks[1])
	}
	if background != 2 {
		t.Errorf("expected tap in the gap to hit the background, got %d", background)
	}

	var long []ItemEvent
	c.OnLongClick(func(ev ItemEvent) { long = append(long, ev) })
	c.Pointer(gesture.Event{Kind: gesture.Press, Position: f32.Pt(200, 150), Time: at(1000)})
	c.Update(at(1600))
	c.Pointer(gesture.Event{Kind: gesture.Release, Position: f32.Pt(200, 150), Time: at(1700)})
	if len(long) != 1 || long[0].Item.Timestamp != 15000 {
		t.Errorf("expected one long click on 15000, got %v", long)
	}
	if len(clicks) != 2 {
		t.Errorf("expected long press not to click, got %v", clicks)
	}
}

func TestFollowPosition(t *testing.T) {
	for _, follow := range []bool{true, false} {
		c := makeTestChart(t, func(o *Options) {
			o.FollowPosition = follow
		})
		table := makeTestTable(t, 16)
		if err := c.Observe(table, nil); err != nil {
			t.Fatalf("failed observing: %v", err)
		}
		waitForRows(t, c, 16)
		if err := table.Add([]any{int64(16000), 1.0, 2.0}); err != nil {
			t.Fatalf("failed adding: %v", err)
		}
		waitForRows(t, c, 17)
		expected := int64(15000)
		if follow {
			expected = 16000
		}
		if got := c.Selected(); got != expected {
			t.Errorf("follow=%v: expected %d selected, got %d", follow, expected, got)
		}
	}
}

func TestPaletteChanges(t *testing.T) {
	c := makeTestChart(t, nil)
	var events int
	c.OnPaletteChanged(func(p []color.NRGBA) {
		events++
	})
	if err := c.Observe(makeTestTable(t, 4), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 4)
	if events != 1 || len(c.Palette()) != 2 {
		t.Fatalf("expected one palette of 2 colours, got %d events %v", events, c.Palette())
	}
	c.SetGraphBackground(palette.White)
	if events != 2 {
		t.Errorf("expected palette change on new background, got %d", events)
	}
	c.SetGraphBackground(palette.White)
	if events != 2 {
		t.Errorf("expected no event for the same background, got %d", events)
	}
	c.SetUserPalette([]color.NRGBA{palette.Black})
	if events != 3 || c.Palette()[0] != palette.Black {
		t.Errorf("expected user colour first, got %v", c.Palette())
	}
}

type recordingPlayer struct {
	played []string
}

func (r *recordingPlayer) Play(source string) error {
	r.played = append(r.played, source)
	return nil
}

func TestSelectionSound(t *testing.T) {
	player := &recordingPlayer{}
	c := makeTestChart(t, func(o *Options) {
		o.PlaySelectionSound = true
		o.Sound = player
	})
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	if len(player.played) != 0 {
		t.Errorf("expected no sound for the initial selection, got %v", player.played)
	}
	c.ScrollTo(0)
	c.Update(at(16))
	c.machine.ScrollTo(c.Offset() - 24)
	c.Update(at(32))
	if len(player.played) != 1 || player.played[0] != SystemSound {
		t.Errorf("expected one system sound, got %v", player.played)
	}
}

func TestReleaseClearsSelection(t *testing.T) {
	c := makeTestChart(t, nil)
	rec := &recorder{}
	c.OnSelection(rec)
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	c.Release()
	waitForRows(t, c, 0)
	if got := c.Selected(); got != dataset.None {
		t.Errorf("expected nothing selected, got %d", got)
	}
	if rec.nothing != 1 {
		t.Errorf("expected one nothing selected event, got %d", rec.nothing)
	}
	if c.MaxOffset() != 0 {
		t.Errorf("expected no scroll range, got %v", c.MaxOffset())
	}
}

func TestFrame(t *testing.T) {
	c := makeTestChart(t, nil)
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	f := c.Frame()
	if len(f.Bars) != 12 {
		t.Errorf("expected 6 visible columns of 2 bars, got %d bars", len(f.Bars))
	}
	highlights := palette.Highlights(c.Palette())
	var lit int
	for _, b := range f.Bars {
		if !b.Highlighted {
			continue
		}
		lit++
		if b.Timestamp != 15000 {
			t.Errorf("expected only 15000 highlighted, got %d", b.Timestamp)
		}
		if b.Color != highlights[b.Series] {
			t.Errorf("expected highlight colour %v, got %v", highlights[b.Series], b.Color)
		}
	}
	if lit != 2 {
		t.Errorf("expected 2 highlighted bars, got %d", lit)
	}
	if f.Zoom != 1 || len(f.Labels) != 0 || len(f.Indicator.Points) != 0 {
		t.Errorf("expected a plain frame without footer, got %+v", f)
	}
	if f.GlowColor != palette.White {
		t.Errorf("expected white glow on a dark graph, got %v", f.GlowColor)
	}

	c.SetShowFooter(true)
	f = c.Frame()
	if len(f.Labels) == 0 || len(f.Indicator.Points) != 3 {
		t.Fatalf("expected labels and an indicator, got %+v", f)
	}
	for _, l := range f.Labels {
		if l.Alpha != 1 || l.Color != labelOnDark {
			t.Errorf("expected opaque light label, got %+v", l)
		}
	}
	if f.Indicator.Color != c.Options().FooterBackground {
		t.Errorf("expected indicator in footer colour, got %v", f.Indicator.Color)
	}
}

func TestReplacingTableZooms(t *testing.T) {
	c := makeTestChart(t, func(o *Options) {
		o.AnimateTransitions = true
	})
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	if c.State() != gesture.Idle {
		t.Fatalf("expected first table to load without transition, state %v", c.State())
	}
	if err := c.Observe(makeTestTable(t, 4), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitFor(t, c, base, func() bool {
		return c.State() == gesture.Zooming
	})

	c.Update(at(175))
	if f := c.Frame(); f.Zoom <= 1 || c.snapshot().Len() != 16 {
		t.Errorf("expected old data shrinking, zoom %v rows %d", f.Zoom, c.snapshot().Len())
	}
	c.Update(at(350))
	if c.snapshot().Len() != 4 || c.State() != gesture.Zooming {
		t.Errorf("expected swap at the midpoint, rows %d state %v", c.snapshot().Len(), c.State())
	}
	c.Update(at(700))
	if c.State() != gesture.Idle {
		t.Errorf("expected transition to end, state %v", c.State())
	}
	if got := c.Selected(); got != 3000 {
		t.Errorf("expected newest row of the new table selected, got %d", got)
	}
}

func TestReplacingTableTwiceSwapsAtLastMidpoint(t *testing.T) {
	c := makeTestChart(t, func(o *Options) {
		o.AnimateTransitions = true
	})
	if err := c.Observe(makeTestTable(t, 16), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 16)
	if err := c.Observe(makeTestTable(t, 4), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitFor(t, c, base, func() bool {
		return c.State() == gesture.Zooming
	})
	c.Update(at(100))
	if err := c.Observe(makeTestTable(t, 8), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitFor(t, c, at(100), func() bool {
		return c.pending != nil && c.pending.Snapshot.Len() == 8
	})
	if c.snapshot().Len() != 16 || c.State() != gesture.Zooming {
		t.Errorf("expected the old rows to stay until the midpoint, rows %d state %v", c.snapshot().Len(), c.State())
	}
	c.Update(at(449))
	if c.snapshot().Len() != 16 {
		t.Errorf("expected no swap before the shrink completes, rows %d", c.snapshot().Len())
	}
	c.Update(at(450))
	if c.snapshot().Len() != 8 || c.State() != gesture.Zooming {
		t.Errorf("expected the last table swapped in at the midpoint, rows %d state %v", c.snapshot().Len(), c.State())
	}
	c.Update(at(800))
	if c.State() != gesture.Idle || c.Selected() != 7000 {
		t.Errorf("expected the transition to end on the newest row, state %v selected %d", c.State(), c.Selected())
	}
}

func TestSetModeReloads(t *testing.T) {
	c := makeTestChart(t, nil)
	if err := c.Observe(makeTestTable(t, 4), nil); err != nil {
		t.Fatalf("failed observing: %v", err)
	}
	waitForRows(t, c, 4)
	c.SetMode(dataset.Stack)
	waitFor(t, c, base, func() bool {
		return c.snapshot().Mode() == dataset.Stack
	})
	if c.snapshot().MaxValue() != 9 {
		t.Errorf("expected stacked max 9, got %v", c.snapshot().MaxValue())
	}
}

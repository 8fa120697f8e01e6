// Package chart is the timeline bar chart engine. A Chart observes a table,
// recomputes its snapshot on a worker goroutine, and turns pointer input and
// frame ticks into scroll state, selection events and a draw list.
//
// All methods except the listener registrations, Selected, Item, Palette and
// Reload must be called from the goroutine that drives the chart, usually
// the UI event loop.
package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"slices"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// shared is the state read by every goroutine and replaced by swaps.
type shared struct {
	snapshot  *dataset.Snapshot
	palette   []color.NRGBA
	highlight []color.NRGBA
	maxOffset float32
	selected  int64
}

// source is what the next recompute request is built from.
type source struct {
	table    datasource.Table
	strategy backend.Strategy
	mode     dataset.Mode
	animate  bool
	stop     func()
}

type Chart struct {
	opts   Options
	cancel context.CancelFunc
	worker *backend.Recomputer
	inbox  *backend.Mailbox[backend.Completed]

	shared backend.RWBox[shared]
	source backend.RWBox[source]
	events events

	machine *gesture.Machine
	view    viewport.Viewport
	bounds  viewport.Rect
	areas   viewport.Areas
	// needsDay mirrors the day format flag of the active snapshot. It starts
	// set so that the first layout reserves room for the widest labels.
	needsDay bool
	loaded   bool
	pending  *backend.Completed

	current, notified int64
	currentFromUser   bool
	// lastTimestamp is the selection when a programmatic scroll started. The
	// highlight stays on it until the scroll ends.
	lastTimestamp int64
}

// New creates a chart and starts its recompute worker. Close stops it.
func New(opts Options) *Chart {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Chart{
		opts:          opts,
		cancel:        cancel,
		inbox:         backend.NewMailbox[backend.Completed](),
		machine:       gesture.NewMachine(opts.Gesture, opts.Integrator),
		needsDay:      true,
		current:       dataset.Pending,
		notified:      dataset.Pending,
		lastTimestamp: dataset.None,
	}
	c.shared.Write(func(s *shared) {
		s.snapshot = dataset.Empty
		s.selected = dataset.Pending
	})
	c.source.Write(func(s *source) {
		s.strategy = opts.Strategy
		s.mode = opts.Mode
		s.animate = opts.AnimateTransitions
	})
	c.worker = backend.NewRecomputer(ctx, opts.Location, func(done backend.Completed) {
		c.inbox.Post(done)
		c.opts.Invalidate()
	})
	c.layout()
	return c
}

// Close stops observing the table and waits for the worker to exit. It
// does not close the table.
func (c *Chart) Close() {
	c.source.Write(func(s *source) {
		if s.stop != nil {
			s.stop()
			s.stop = nil
		}
		s.table = nil
	})
	c.cancel()
	<-c.worker.Done()
}

// Observe validates table and starts following it with the given strategy,
// or the configured one when strategy is nil. The previous table is
// released; replacing a table plays the zoom transition when enabled.
func (c *Chart) Observe(table datasource.Table, strategy backend.Strategy) error {
	if table == nil {
		return errors.New("no table to observe")
	}
	if err := datasource.Validate(table); err != nil {
		return fmt.Errorf("failed validating table: %w", err)
	}
	var replaced bool
	c.source.Write(func(s *source) {
		if s.stop != nil {
			s.stop()
		}
		replaced = s.table != nil
		s.table = table
		if strategy != nil {
			s.strategy = strategy
		}
		s.stop = table.Watch(c.tableEvent)
	})
	c.Reload(replaced)
	return nil
}

// Release stops following the table and clears the chart.
func (c *Chart) Release() {
	c.source.Write(func(s *source) {
		if s.stop != nil {
			s.stop()
			s.stop = nil
		}
		s.table = nil
	})
	c.Reload(false)
}

func (c *Chart) tableEvent(ev datasource.Event) {
	switch ev {
	case datasource.Changed:
		c.Reload(false)
	case datasource.Invalidated:
		c.inbox.Post(backend.Completed{Result: backend.Result{Snapshot: dataset.Empty}})
		c.opts.Invalidate()
	}
}

// Reload recomputes the snapshot of the observed table. animate plays the
// zoom transition around the swap when transitions are enabled. It is safe
// to call from any goroutine.
func (c *Chart) Reload(animate bool) {
	var req backend.Request
	c.source.Read(func(s *source) {
		req = backend.Request{
			Table:    s.table,
			Mode:     s.mode,
			Strategy: s.strategy,
			Animate:  animate && s.animate,
		}
	})
	c.worker.Enqueue(req)
}

func (c *Chart) snapshot() *dataset.Snapshot {
	var snap *dataset.Snapshot
	c.shared.Read(func(s *shared) {
		snap = s.snapshot
	})
	return snap
}

// Update drains finished recomputes, advances animations to now and
// resolves the selection. Call it once per frame.
func (c *Chart) Update(now time.Time) {
	for _, done := range c.inbox.Drain() {
		c.receive(done, now)
	}
	step := c.machine.Update(now)
	c.resolveActions()
	c.settle(now, step)
}

// NextDeadline returns when Update must run again without new input.
func (c *Chart) NextDeadline(now time.Time) (time.Time, bool) {
	if c.inbox.Len() > 0 {
		return now, true
	}
	return c.machine.NextDeadline(now)
}

func (c *Chart) receive(done backend.Completed, now time.Time) {
	if done.Err != nil {
		log.Printf("failed loading chart data: %v", done.Err)
	}
	if done.Animate {
		c.machine.StartZoom(now, c.applyPending)
		c.pending = &done
		return
	}
	c.pending = nil
	c.machine.Halt()
	c.swap(done.Snapshot)
}

func (c *Chart) applyPending() {
	if c.pending == nil {
		return
	}
	done := c.pending
	c.pending = nil
	c.swap(done.Snapshot)
}

// swap promotes a computed snapshot, keeping the selected column centered
// when it survived.
func (c *Chart) swap(snap *dataset.Snapshot) {
	if snap == nil {
		snap = dataset.Empty
	}
	c.loaded = true
	c.needsDay = snap.NeedsDayFormat()
	geom := c.geometry()
	offset := float32(0)
	atNewest := c.machine.Offset() == 0
	i, found := snap.Index(c.current)
	if found && c.current >= 0 && !(atNewest && c.opts.FollowPosition) {
		offset = geom.OffsetForIndex(snap.Len(), i)
	} else {
		c.current = dataset.Pending
	}
	pal := palette.Series(c.opts.GraphBackground, c.opts.UserPalette, snap.SeriesCount())
	var changed bool
	c.shared.Write(func(s *shared) {
		s.snapshot = snap
		changed = !palette.Equal(pal, s.palette)
		s.palette = pal
		s.highlight = palette.Highlights(pal)
		s.selected = c.current
	})
	c.layout()
	c.machine.SetOffset(offset)
	if changed {
		c.notifyPalette(pal)
	}
	if c.current >= 0 {
		c.notified = c.current
		c.notifySelection(false)
	}
}

// geometry returns the column sizing, widened to fit the tick labels when
// the footer is shown.
func (c *Chart) geometry() viewport.Geometry {
	g := viewport.Geometry{BarWidth: c.opts.BarWidth, BarSpacing: c.opts.BarSpacing}
	if c.opts.ShowFooter {
		g = viewport.EnsureBarWidth(g, c.opts.Measurer, viewport.Formats(c.needsDay))
	}
	return g
}

// layout recomputes the areas, the geometry and the scroll range.
func (c *Chart) layout() {
	footer := c.opts.FooterHeight
	if c.opts.ShowFooter {
		footer = viewport.FooterHeight(footer, c.opts.Measurer, viewport.Formats(c.needsDay))
	}
	prev := c.view.Geometry
	c.view.Geometry = c.geometry()
	c.areas = viewport.Layout(c.bounds, c.opts.ShowFooter, footer, c.view.BarWidth)
	c.view.Width = c.areas.Graph.Dx()
	c.view.Invalidate()

	snap := c.snapshot()
	maxOffset := c.view.MaxOffset(snap.Len())
	c.shared.Write(func(s *shared) {
		s.maxOffset = maxOffset
	})
	c.machine.SetMaxOffset(maxOffset)
	c.machine.SetWidth(c.view.Width)
	contentScrolls := snap.Len() >= c.view.MaxVisible(c.view.Width)/2
	c.machine.SetOverscroll(c.opts.Overscroll, contentScrolls)
	if prev != c.view.Geometry && c.current >= 0 {
		if offset, ok := c.view.OffsetFor(snap, c.current); ok {
			c.machine.SetOffset(offset)
		}
	}
}

// settle resolves the column under the center line and notifies selection
// changes.
func (c *Chart) settle(now time.Time, step gesture.Step) {
	if step.Settled {
		c.lastTimestamp = dataset.None
	}
	if !c.loaded || c.machine.State() == gesture.Zooming {
		return
	}
	snap := c.snapshot()
	offset := c.machine.Offset()
	ts := c.view.TimestampAt(snap, offset)
	if c.opts.EnsureSelection && c.machine.State() == gesture.Idle && snap.Len() > 0 {
		ts = c.view.NearestTimestampAt(snap, offset)
		if target, ok := c.view.OffsetFor(snap, ts); ok && target != offset {
			c.smoothScrollTo(target, now)
		}
	}
	if c.machine.State() == gesture.Scrolling {
		return
	}
	if ts != c.current {
		c.currentFromUser = c.current != dataset.Pending
		c.current = ts
		c.shared.Write(func(s *shared) {
			s.selected = ts
		})
		if c.currentFromUser && ts >= 0 {
			c.playSound()
		}
	}
	if c.current != c.notified && (c.current >= 0 || !c.machine.InMotion()) {
		c.notified = c.current
		c.notifySelection(c.currentFromUser)
	}
}

func (c *Chart) playSound() {
	if !c.opts.PlaySelectionSound || c.opts.Sound == nil {
		return
	}
	if err := c.opts.Sound.Play(c.opts.SelectionSoundSource); err != nil {
		log.Printf("failed playing selection sound: %v", err)
	}
}

func (c *Chart) notifySelection(fromUser bool) {
	item, ok := c.Item(c.current)
	for _, l := range c.events.selection.snapshot() {
		if ok {
			l.SelectionChanged(item, fromUser)
		} else {
			l.NothingSelected()
		}
	}
}

func (c *Chart) notifyPalette(p []color.NRGBA) {
	for _, fn := range c.events.palette.snapshot() {
		fn(slices.Clone(p))
	}
}

// Pointer feeds a pointer event. It returns false when the event does not
// belong to a horizontal gesture.
func (c *Chart) Pointer(ev gesture.Event) bool {
	consumed := c.machine.Pointer(ev)
	c.resolveActions()
	if consumed {
		c.opts.Invalidate()
	}
	return consumed
}

func (c *Chart) resolveActions() {
	actions := c.machine.Actions()
	if len(actions) == 0 {
		return
	}
	snap := c.snapshot()
	for _, a := range actions {
		hit, ok := c.view.HitTest(snap, c.areas, a.Offset, a.Position)
		var ev ItemEvent
		if ok {
			ev.Series = hit.Series
			ev.Item, ok = c.Item(hit.Timestamp)
		}
		switch a.Kind {
		case gesture.Tap:
			if ok && !c.events.click.empty() {
				for _, fn := range c.events.click.snapshot() {
					fn(ev)
				}
				continue
			}
			for _, fn := range c.events.background.snapshot() {
				fn()
			}
		case gesture.LongPress:
			if !ok {
				continue
			}
			for _, fn := range c.events.longClick.snapshot() {
				fn(ev)
			}
		}
	}
}

// ScrollTo centers the column at timestamp. It reports false when there is
// no such column.
func (c *Chart) ScrollTo(timestamp int64) bool {
	offset, ok := c.view.OffsetFor(c.snapshot(), timestamp)
	if !ok {
		return false
	}
	if c.machine.ScrollTo(offset) {
		c.opts.Invalidate()
	}
	return true
}

// SmoothScrollTo scrolls to the column at timestamp. No selection events
// fire until the scroll ends. It reports false when there is no such
// column.
func (c *Chart) SmoothScrollTo(timestamp int64) bool {
	offset, ok := c.view.OffsetFor(c.snapshot(), timestamp)
	if !ok {
		return false
	}
	c.smoothScrollTo(offset, c.opts.Clock())
	return true
}

func (c *Chart) smoothScrollTo(offset float32, now time.Time) {
	prev := c.current
	if c.machine.SmoothScrollTo(offset, now) {
		c.lastTimestamp = prev
		c.opts.Invalidate()
	}
}

// Resize sets the widget bounds.
func (c *Chart) Resize(bounds viewport.Rect) {
	if bounds == c.bounds {
		return
	}
	c.bounds = bounds
	c.layout()
}

// Selected returns the timestamp under the center line, dataset.None when
// the center falls between columns, or dataset.Pending before the first
// resolution after a data swap.
func (c *Chart) Selected() int64 {
	return c.shared.Load().selected
}

// Item returns the column at timestamp.
func (c *Chart) Item(timestamp int64) (Item, bool) {
	row, ok := c.snapshot().Lookup(timestamp)
	if !ok {
		return Item{}, false
	}
	return Item{Timestamp: row.Timestamp, Series: row.Original()}, true
}

// Palette returns the current series colours.
func (c *Chart) Palette() []color.NRGBA {
	return slices.Clone(c.shared.Load().palette)
}

// MaxOffset returns the scroll range of the active snapshot.
func (c *Chart) MaxOffset() float32 {
	return c.shared.Load().maxOffset
}

func (c *Chart) State() gesture.State {
	return c.machine.State()
}

func (c *Chart) Offset() float32 {
	return c.machine.Offset()
}

// Geometry returns the effective column sizing.
func (c *Chart) Geometry() viewport.Geometry {
	return c.view.Geometry
}

// Results fires when recompute results are waiting for Update.
func (c *Chart) Results() <-chan struct{} {
	return c.inbox.Ready()
}

// Loaded reports whether a snapshot has been swapped in.
func (c *Chart) Loaded() bool {
	return c.loaded
}

// Len is the number of columns in the active snapshot.
func (c *Chart) Len() int {
	return c.snapshot().Len()
}

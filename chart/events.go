package chart

import (
	"image/color"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Item is the public view of one column.
type Item struct {
	Timestamp int64
	// Series holds the values indexed by series.
	Series []float64
}

// ItemEvent is a click or long click on a column.
type ItemEvent struct {
	Item Item
	// Series is the clicked series, or -1 for the column as a whole.
	Series int
}

// SelectionListener receives selection changes.
type SelectionListener interface {
	SelectionChanged(item Item, fromUser bool)
	NothingSelected()
}

// SelectionFuncs adapts a pair of functions to a SelectionListener. Either
// may be nil.
type SelectionFuncs struct {
	Changed func(item Item, fromUser bool)
	Nothing func()
}

func (s SelectionFuncs) SelectionChanged(item Item, fromUser bool) {
	if s.Changed != nil {
		s.Changed(item, fromUser)
	}
}

func (s SelectionFuncs) NothingSelected() {
	if s.Nothing != nil {
		s.Nothing()
	}
}

// listeners is a registry of callbacks safe for concurrent registration.
// Callbacks run on the goroutine driving the chart.
type listeners[T any] struct {
	lock    sync.Mutex
	next    int
	entries []entry[T]
}

type entry[T any] struct {
	id int
	fn T
}

func (l *listeners[T]) add(fn T) (remove func()) {
	l.lock.Lock()
	defer l.lock.Unlock()
	id := l.next
	l.next++
	l.entries = append(l.entries, entry[T]{id: id, fn: fn})
	return func() {
		l.lock.Lock()
		defer l.lock.Unlock()
		l.entries = slices.DeleteFunc(l.entries, func(e entry[T]) bool { return e.id == id })
	}
}

func (l *listeners[T]) snapshot() []T {
	l.lock.Lock()
	defer l.lock.Unlock()
	return lo.Map(l.entries, func(e entry[T], _ int) T {
		return e.fn
	})
}

func (l *listeners[T]) empty() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.entries) == 0
}

type events struct {
	selection  listeners[SelectionListener]
	click      listeners[func(ItemEvent)]
	longClick  listeners[func(ItemEvent)]
	background listeners[func()]
	palette    listeners[func([]color.NRGBA)]
}

// OnSelection registers l for selection changes.
func (c *Chart) OnSelection(l SelectionListener) (remove func()) {
	return c.events.selection.add(l)
}

// OnClick registers fn for taps on a column.
func (c *Chart) OnClick(fn func(ItemEvent)) (remove func()) {
	return c.events.click.add(fn)
}

// OnLongClick registers fn for long presses on a column.
func (c *Chart) OnLongClick(fn func(ItemEvent)) (remove func()) {
	return c.events.longClick.add(fn)
}

// OnBackgroundClick registers fn for taps that hit no column, or any tap
// while no click listener is registered.
func (c *Chart) OnBackgroundClick(fn func()) (remove func()) {
	return c.events.background.add(fn)
}

// OnPaletteChanged registers fn for changes of the series palette.
func (c *Chart) OnPaletteChanged(fn func([]color.NRGBA)) (remove func()) {
	return c.events.palette.add(fn)
}

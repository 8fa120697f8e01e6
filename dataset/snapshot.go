package dataset

import (
	"cmp"
	"slices"
)

// Snapshot is a fully computed dataset ready for drawing and hit testing.
// Rows are kept in strictly increasing timestamp order. A Snapshot is never
// modified after Build returns it, so it can be shared freely between
// goroutines. The nil *Snapshot is a valid empty snapshot.
type Snapshot struct {
	rows      []Row
	mode      Mode
	series    int
	maxValue  float64
	dayFormat bool
}

// Empty is the snapshot used when there is nothing to show.
var Empty = &Snapshot{}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Row returns the i'th row counted from the oldest timestamp.
func (s *Snapshot) Row(i int) Row {
	return s.rows[i]
}

func (s *Snapshot) Timestamp(i int) int64 {
	return s.rows[i].Timestamp
}

// Index finds the position of the row with the given timestamp.
func (s *Snapshot) Index(timestamp int64) (int, bool) {
	if s == nil {
		return 0, false
	}
	return search(s.rows, timestamp)
}

// Lookup returns the row stored at the given timestamp.
func (s *Snapshot) Lookup(timestamp int64) (Row, bool) {
	i, ok := s.Index(timestamp)
	if !ok {
		return Row{}, false
	}
	return s.rows[i], true
}

// Last returns the most recent row.
func (s *Snapshot) Last() (Row, bool) {
	if s.Len() == 0 {
		return Row{}, false
	}
	return s.rows[len(s.rows)-1], true
}

// MaxValue is the tallest column magnitude: the largest single value, or the
// largest per-row sum in Stack mode.
func (s *Snapshot) MaxValue() float64 {
	if s == nil {
		return 0
	}
	return s.maxValue
}

func (s *Snapshot) SeriesCount() int {
	if s == nil {
		return 0
	}
	return s.series
}

// Mode is the graph mode the rows were prepared for.
func (s *Snapshot) Mode() Mode {
	if s == nil {
		return Overlap
	}
	return s.mode
}

// NeedsDayFormat reports whether any row lands on a day boundary or whether
// neighbouring rows use different tick label formats.
func (s *Snapshot) NeedsDayFormat() bool {
	return s != nil && s.dayFormat
}

// Equal compares the content of two snapshots.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s.Len() != o.Len() || s.SeriesCount() != o.SeriesCount() ||
		s.MaxValue() != o.MaxValue() || s.NeedsDayFormat() != o.NeedsDayFormat() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		a, b := s.rows[i], o.rows[i]
		if a.Timestamp != b.Timestamp || !slices.Equal(a.Values, b.Values) || !slices.Equal(a.Order, b.Order) {
			return false
		}
	}
	return true
}

// Extend starts a new staging builder seeded with the rows and derived values
// of s. Rows are shared, not copied; the builder replaces rows rather than
// writing into them.
func (s *Snapshot) Extend() *Builder {
	if s == nil {
		return NewBuilder(Overlap, 0)
	}
	return &Builder{
		rows:      slices.Clone(s.rows),
		mode:      s.mode,
		series:    s.series,
		maxValue:  s.maxValue,
		dayFormat: s.dayFormat,
	}
}

// Builder accumulates rows for a Snapshot that is not yet active.
type Builder struct {
	rows      []Row
	mode      Mode
	series    int
	maxValue  float64
	dayFormat bool
	reused    int
}

func NewBuilder(mode Mode, series int) *Builder {
	return &Builder{mode: mode, series: series}
}

func (b *Builder) Len() int {
	return len(b.rows)
}

// Set stores values at timestamp, replacing any existing row. A row whose
// values did not change is kept as is.
func (b *Builder) Set(timestamp int64, values []float64) Row {
	if n := len(b.rows); n == 0 || b.rows[n-1].Timestamp < timestamp {
		r := NewRow(timestamp, values, b.mode)
		b.rows = append(b.rows, r)
		return r
	}
	i, found := search(b.rows, timestamp)
	if found {
		if b.rows[i].sameValues(values, b.mode) {
			b.reused++
			return b.rows[i]
		}
		b.rows[i] = NewRow(timestamp, values, b.mode)
		return b.rows[i]
	}
	r := NewRow(timestamp, values, b.mode)
	b.rows = slices.Insert(b.rows, i, r)
	return r
}

// Lookup returns the staged row at timestamp.
func (b *Builder) Lookup(timestamp int64) (Row, bool) {
	i, ok := search(b.rows, timestamp)
	if !ok {
		return Row{}, false
	}
	return b.rows[i], true
}

// MaxValue returns the staged maximum.
func (b *Builder) MaxValue() float64 {
	return b.maxValue
}

// NeedsDayFormat returns the staged day format flag.
func (b *Builder) NeedsDayFormat() bool {
	return b.dayFormat
}

// SetDerived records the values computed while scanning the source.
func (b *Builder) SetDerived(maxValue float64, dayFormat bool) {
	b.maxValue = max(maxValue, 0)
	b.dayFormat = dayFormat
}

// Reused counts the rows Set kept unchanged.
func (b *Builder) Reused() int {
	return b.reused
}

// Build finishes the staging copy. The builder must not be used afterwards.
func (b *Builder) Build() *Snapshot {
	s := &Snapshot{
		rows:      b.rows,
		mode:      b.mode,
		series:    b.series,
		maxValue:  b.maxValue,
		dayFormat: b.dayFormat,
	}
	b.rows = nil
	if len(s.rows) == 0 {
		s.maxValue = 0
		s.dayFormat = false
	}
	return s
}

func search(rows []Row, timestamp int64) (int, bool) {
	return slices.BinarySearchFunc(rows, timestamp, func(r Row, t int64) int {
		return cmp.Compare(r.Timestamp, t)
	})
}

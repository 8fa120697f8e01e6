// Package backend turns a data source into chart snapshots away from the
// interaction goroutine.
package backend

import (
	"fmt"
	"strings"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

// Input is everything a strategy needs to build a snapshot.
type Input struct {
	Rows  datasource.Rows
	Mode  dataset.Mode
	Prior *dataset.Snapshot
	// Loc is the time zone used to pick tick formats. Nil means time.Local.
	Loc *time.Location
}

// Result describes a finished computation.
type Result struct {
	Snapshot *dataset.Snapshot
	// Ran names the strategy that actually ran, which is Full whenever an
	// incremental strategy had no usable prior snapshot.
	Ran string
	// Reads counts the source rows visited.
	Reads int
}

// Strategy builds a snapshot from a source, possibly reusing a prior one.
type Strategy interface {
	Name() string
	// Incremental strategies need a prior snapshot computed for the same mode
	// and series count.
	Incremental() bool
	build(c *datasource.Cursor, in Input) (*dataset.Snapshot, error)
}

// Full rebuilds every row from scratch.
type Full struct{}

// PreserveNoDeletes rescans the whole source but starts from the prior rows,
// keeping rows whose values did not change. Rows missing from the source are
// never removed, so the source must only ever grow or change in place.
type PreserveNoDeletes struct{}

// AppendOnly scans the source backwards from its end and stops at the first
// row whose timestamp equals the newest prior timestamp. The source must be
// sorted by timestamp, and existing rows must not change.
type AppendOnly struct{}

var (
	_ Strategy = Full{}
	_ Strategy = PreserveNoDeletes{}
	_ Strategy = AppendOnly{}
)

// ParseStrategy accepts the names produced by Strategy.Name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "full", "none":
		return Full{}, nil
	case "preserve-no-deletes", "no-deletes", "preserve":
		return PreserveNoDeletes{}, nil
	case "append-only", "append", "only-additions":
		return AppendOnly{}, nil
	}
	return Full{}, fmt.Errorf("unknown recompute strategy %q", name)
}

// Compute runs s over in. An empty source yields dataset.Empty. A failure
// reading the source is returned along with an empty snapshot.
func Compute(s Strategy, in Input) (Result, error) {
	if s == nil {
		s = Full{}
	}
	if in.Rows == nil || in.Rows.Len() == 0 {
		return Result{Snapshot: dataset.Empty, Ran: s.Name()}, nil
	}
	c := datasource.NewCursor(in.Rows)
	if s.Incremental() && !compatible(in.Prior, in.Mode, c.Series()) {
		s = Full{}
	}
	snap, err := s.build(c, in)
	if err != nil {
		return Result{Snapshot: dataset.Empty, Ran: s.Name(), Reads: c.Reads()}, err
	}
	return Result{Snapshot: snap, Ran: s.Name(), Reads: c.Reads()}, nil
}

func compatible(prior *dataset.Snapshot, mode dataset.Mode, series int) bool {
	return prior.Len() > 0 && prior.Mode() == mode && prior.SeriesCount() == series
}

func (Full) Name() string      { return "full" }
func (Full) Incremental() bool { return false }

func (Full) build(c *datasource.Cursor, in Input) (*dataset.Snapshot, error) {
	return scanForward(c, dataset.NewBuilder(in.Mode, c.Series()), in)
}

func (PreserveNoDeletes) Name() string      { return "preserve-no-deletes" }
func (PreserveNoDeletes) Incremental() bool { return true }

func (PreserveNoDeletes) build(c *datasource.Cursor, in Input) (*dataset.Snapshot, error) {
	return scanForward(c, in.Prior.Extend(), in)
}

// scanForward visits every source row, storing it into b. The maximum and the
// day format flag are computed over the scanned rows only.
func scanForward(c *datasource.Cursor, b *dataset.Builder, in Input) (*dataset.Snapshot, error) {
	days := dataset.DayFormatTracker{Loc: in.Loc}
	var maxValue float64
	var values []float64
	for ok := c.MoveToFirst(); ok; ok = c.MoveToNext() {
		ts, err := c.Timestamp()
		if err != nil {
			return nil, err
		}
		values, err = c.Values(values)
		if err != nil {
			return nil, err
		}
		row := b.Set(ts, values)
		maxValue = max(maxValue, row.Magnitude(in.Mode))
		days.Observe(ts)
	}
	b.SetDerived(maxValue, days.Needs())
	return b.Build(), nil
}

func (AppendOnly) Name() string      { return "append-only" }
func (AppendOnly) Incremental() bool { return true }

func (AppendOnly) build(c *datasource.Cursor, in Input) (*dataset.Snapshot, error) {
	b := in.Prior.Extend()
	last, _ := in.Prior.Last()
	maxValue := in.Prior.MaxValue()
	days := dataset.DayFormatTracker{Loc: in.Loc}
	days.Seed(in.Prior.NeedsDayFormat())
	var values []float64
	for ok := c.MoveToLast(); ok; ok = c.MoveToPrevious() {
		ts, err := c.Timestamp()
		if err != nil {
			return nil, err
		}
		// The boundary row still takes part in the format comparison with
		// the first appended row.
		days.Observe(ts)
		if ts == last.Timestamp {
			break
		}
		values, err = c.Values(values)
		if err != nil {
			return nil, err
		}
		row := b.Set(ts, values)
		maxValue = max(maxValue, row.Magnitude(in.Mode))
	}
	b.SetDerived(maxValue, days.Needs())
	return b.Build(), nil
}

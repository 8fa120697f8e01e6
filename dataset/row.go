package dataset

import (
	"fmt"
	"strings"
)

// Mode selects how the series of a single column are laid out.
type Mode uint8

const (
	// Overlap draws every series over the full column width, largest first.
	Overlap Mode = iota
	// Stack piles the series on top of each other.
	Stack
	// SideBySide splits the column width evenly between the series.
	SideBySide
)

func (m Mode) String() string {
	switch m {
	case Overlap:
		return "overlap"
	case Stack:
		return "stack"
	case SideBySide:
		return "side-by-side"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// ParseMode accepts the names produced by Mode.String, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overlap", "bars", "":
		return Overlap, nil
	case "stack", "stacked":
		return Stack, nil
	case "side-by-side", "sidebyside", "side":
		return SideBySide, nil
	}
	return Overlap, fmt.Errorf("unknown graph mode %q", s)
}

// Sentinel timestamps used by the selection tracking.
const (
	// None means that no column is selected.
	None int64 = -1
	// Pending means that the selection has not been resolved since the last
	// dataset swap.
	Pending int64 = -2
)

// Row holds the values of every series at one timestamp. Values may be
// reordered for drawing, in which case Order maps each position back to its
// series index. A Row is never modified once it belongs to a Snapshot.
type Row struct {
	Timestamp int64
	Values    []float64
	Order     []int32
}

// NewRow copies values into a fresh row, sorting them when the mode draws
// series over each other.
func NewRow(timestamp int64, values []float64, mode Mode) Row {
	r := Row{
		Timestamp: timestamp,
		Values:    append([]float64(nil), values...),
		Order:     Identity(len(values)),
	}
	if mode == Overlap {
		SortWithPermutation(r.Values, r.Order)
	}
	return r
}

// Original returns the values indexed by series rather than by draw order.
func (r Row) Original() []float64 {
	out := make([]float64, len(r.Values))
	for i, series := range r.Order {
		out[series] = r.Values[i]
	}
	return out
}

// Magnitude is the height this row needs on the value axis: the sum of the
// values when stacking and the largest single value otherwise.
func (r Row) Magnitude(mode Mode) float64 {
	var m float64
	for _, v := range r.Values {
		if mode == Stack {
			m += v
		} else if v > m {
			m = v
		}
	}
	return m
}

// sameValues reports whether r already holds values for the given mode.
func (r Row) sameValues(values []float64, mode Mode) bool {
	if len(r.Values) != len(values) {
		return false
	}
	for i, series := range r.Order {
		if values[series] != r.Values[i] {
			return false
		}
	}
	for i, series := range r.Order {
		if mode == Overlap && i > 0 && r.Values[i-1] > r.Values[i] {
			return false
		}
		if mode != Overlap && int(series) != i {
			return false
		}
	}
	return true
}

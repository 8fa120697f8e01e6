package datasource

import (
	"fmt"
	"math"
)

// Cursor walks a Rows view forwards or backwards, one row at a time. It
// counts the rows it visits so that callers can verify how much of a source
// an incremental scan touched.
type Cursor struct {
	rows  Rows
	pos   int
	reads int
}

// NewCursor positions a cursor before the first row.
func NewCursor(rows Rows) *Cursor {
	return &Cursor{rows: rows, pos: -1}
}

func (c *Cursor) Len() int {
	return c.rows.Len()
}

// Series is the number of series columns.
func (c *Cursor) Series() int {
	return max(len(c.rows.Columns())-1, 0)
}

func (c *Cursor) Position() int {
	return c.pos
}

// Reads reports how many times the cursor landed on a row.
func (c *Cursor) Reads() int {
	return c.reads
}

func (c *Cursor) moveTo(pos int) bool {
	if pos < 0 || pos >= c.rows.Len() {
		c.pos = max(-1, min(pos, c.rows.Len()))
		return false
	}
	c.pos = pos
	c.reads++
	return true
}

func (c *Cursor) MoveToFirst() bool {
	return c.moveTo(0)
}

func (c *Cursor) MoveToLast() bool {
	return c.moveTo(c.rows.Len() - 1)
}

func (c *Cursor) MoveToNext() bool {
	return c.moveTo(c.pos + 1)
}

func (c *Cursor) MoveToPrevious() bool {
	return c.moveTo(c.pos - 1)
}

// Timestamp reads column 0 of the current row.
func (c *Cursor) Timestamp() (int64, error) {
	ts, err := c.rows.Int64(c.pos, 0)
	if err != nil {
		return 0, fmt.Errorf("failed reading timestamp of row %d: %w", c.pos, err)
	}
	return ts, nil
}

// Values reads the series of the current row into dst, growing it as needed.
func (c *Cursor) Values(dst []float64) ([]float64, error) {
	n := c.Series()
	dst = dst[:0]
	for col := 1; col <= n; col++ {
		v, err := c.rows.Float64(c.pos, col)
		if err != nil {
			return dst, fmt.Errorf("failed reading %q of row %d: %w", c.rows.Columns()[col], c.pos, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dst, fmt.Errorf("row %d: %q holds non-finite value %v: %w", c.pos, c.rows.Columns()[col], v, ErrSchema)
		}
		dst = append(dst, v)
	}
	return dst, nil
}

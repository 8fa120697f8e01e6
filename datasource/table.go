// Package datasource provides the tabular sources a chart can be bound to.
//
// A source exposes the timestamp of each row in column 0 and one numeric
// series per remaining column. Sources are observable: they report when their
// content changed or when they became unusable.
package datasource

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

var (
	// ErrSchema is wrapped by every validation failure.
	ErrSchema = errors.New("invalid table schema")
	// ErrClosed is returned when reading a table after Close.
	ErrClosed = errors.New("table closed")
)

// Type is the storage class of a single cell.
type Type uint8

const (
	Null Type = iota
	Integer
	Float
	String
	Blob
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Blob:
		return "blob"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Rows is a random access view over the cells of a table.
type Rows interface {
	Len() int
	Columns() []string
	Type(row, col int) Type
	Float64(row, col int) (float64, error)
	Int64(row, col int) (int64, error)
}

// Event is a notification emitted by an observable table.
type Event uint8

const (
	// Changed means the rows of the table were modified.
	Changed Event = iota
	// Invalidated means the table can no longer be read.
	Invalidated
)

func (e Event) String() string {
	if e == Invalidated {
		return "invalidated"
	}
	return "changed"
}

// Table is an observable source of rows.
type Table interface {
	// View calls fn with a consistent view of the rows. The view must not be
	// retained after fn returns. View returns ErrClosed once the table is
	// closed.
	View(fn func(Rows) error) error
	// Watch registers fn to be called after every change. Calls happen on
	// whatever goroutine modified the table. The returned function removes
	// the registration.
	Watch(fn func(Event)) (stop func())
	Close() error
}

// watchers fans table events out to registered callbacks.
type watchers struct {
	lock sync.Mutex
	next int
	fns  map[int]func(Event)
}

func (w *watchers) add(fn func(Event)) func() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.fns == nil {
		w.fns = map[int]func(Event){}
	}
	id := w.next
	w.next++
	w.fns[id] = fn
	return func() {
		w.lock.Lock()
		defer w.lock.Unlock()
		delete(w.fns, id)
	}
}

func (w *watchers) notify(ev Event) {
	w.lock.Lock()
	fns := lo.Values(w.fns)
	w.lock.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// store is the lock-guarded cell storage shared by the table implementations.
type store struct {
	lock     sync.RWMutex
	columns  []string
	rows     [][]any
	closed   bool
	watchers watchers
}

func (s *store) View(fn func(Rows) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(cells{columns: s.columns, rows: s.rows})
}

func (s *store) Watch(fn func(Event)) func() {
	return s.watchers.add(fn)
}

// replace swaps the whole content and reports whether anything differed.
func (s *store) replace(columns []string, rows [][]any) bool {
	s.lock.Lock()
	changed := !slices.Equal(s.columns, columns) || !equalRows(s.rows, rows)
	s.columns = columns
	s.rows = rows
	s.lock.Unlock()
	return changed
}

func (s *store) close() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	wasOpen := !s.closed
	s.closed = true
	s.rows = nil
	return wasOpen
}

func equalRows(a, b [][]any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if !reflect.DeepEqual(a[i][j], b[i][j]) {
				return false
			}
		}
	}
	return true
}

// cells implements Rows over a slice of dynamically typed rows.
type cells struct {
	columns []string
	rows    [][]any
}

func (c cells) Len() int {
	return len(c.rows)
}

func (c cells) Columns() []string {
	return c.columns
}

func (c cells) cell(row, col int) (any, error) {
	if row < 0 || row >= len(c.rows) {
		return nil, fmt.Errorf("row %d out of range [0, %d)", row, len(c.rows))
	}
	r := c.rows[row]
	if col < 0 || col >= len(c.columns) {
		return nil, fmt.Errorf("column %d out of range [0, %d)", col, len(c.columns))
	}
	if col >= len(r) {
		return nil, nil
	}
	return r[col], nil
}

func (c cells) Type(row, col int) Type {
	v, err := c.cell(row, col)
	if err != nil {
		return Null
	}
	return typeOf(v)
}

func (c cells) Float64(row, col int) (float64, error) {
	v, err := c.cell(row, col)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

func (c cells) Int64(row, col int) (int64, error) {
	v, err := c.cell(row, col)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case time.Time:
		return v.UnixMilli(), nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

func typeOf(v any) Type {
	switch v.(type) {
	case nil:
		return Null
	case int, int32, int64, bool, time.Time:
		return Integer
	case float32, float64:
		return Float
	case string:
		return String
	case []byte:
		return Blob
	default:
		return String
	}
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case time.Time:
		return float64(v.UnixMilli()), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	default:
		return 0, fmt.Errorf("cannot read %T as a number", v)
	}
}

// parseCell turns CSV text into the most specific cell value.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

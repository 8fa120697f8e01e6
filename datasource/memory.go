package datasource

import (
	"fmt"
	"slices"
)

// Memory is a table held entirely in memory. Every mutation notifies the
// registered watchers with Changed.
type Memory struct {
	store
}

var _ Table = (*Memory)(nil)

// NewMemory creates an empty table with the given column names. The first
// column holds the timestamps.
func NewMemory(columns ...string) *Memory {
	m := &Memory{}
	m.columns = slices.Clone(columns)
	return m
}

// Add appends rows. Each row is copied.
func (m *Memory) Add(rows ...[]any) error {
	if err := m.write(func() error {
		for _, r := range rows {
			if len(r) != len(m.columns) {
				return fmt.Errorf("row has %d cells, table has %d columns", len(r), len(m.columns))
			}
		}
		for _, r := range rows {
			m.rows = append(m.rows, slices.Clone(r))
		}
		return nil
	}); err != nil {
		return err
	}
	m.watchers.notify(Changed)
	return nil
}

// Update replaces the row at index i.
func (m *Memory) Update(i int, row []any) error {
	if err := m.write(func() error {
		if i < 0 || i >= len(m.rows) {
			return fmt.Errorf("row %d out of range [0, %d)", i, len(m.rows))
		}
		if len(row) != len(m.columns) {
			return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(m.columns))
		}
		m.rows[i] = slices.Clone(row)
		return nil
	}); err != nil {
		return err
	}
	m.watchers.notify(Changed)
	return nil
}

// Remove deletes the row at index i.
func (m *Memory) Remove(i int) error {
	if err := m.write(func() error {
		if i < 0 || i >= len(m.rows) {
			return fmt.Errorf("row %d out of range [0, %d)", i, len(m.rows))
		}
		m.rows = slices.Delete(m.rows, i, i+1)
		return nil
	}); err != nil {
		return err
	}
	m.watchers.notify(Changed)
	return nil
}

// Reset replaces all rows at once.
func (m *Memory) Reset(rows [][]any) error {
	cloned := make([][]any, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(m.columns) {
			return fmt.Errorf("row has %d cells, table has %d columns", len(r), len(m.columns))
		}
		cloned = append(cloned, slices.Clone(r))
	}
	if m.replace(m.columns, cloned) {
		m.watchers.notify(Changed)
	}
	return nil
}

// Len reports the number of rows.
func (m *Memory) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.rows)
}

// Close discards the rows and notifies watchers with Invalidated.
func (m *Memory) Close() error {
	if m.close() {
		m.watchers.notify(Invalidated)
	}
	return nil
}

func (m *Memory) write(f func() error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return ErrClosed
	}
	return f()
}

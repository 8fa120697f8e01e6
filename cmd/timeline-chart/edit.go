package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

// defaultStep is the gap between the newest row and an added one when the
// table is too short to infer its sampling interval.
const defaultStep = 1000

// editor mutates the rows of an in-memory table by timestamp.
type editor struct {
	table *datasource.Memory
	rand  *rand.Rand
}

func newEditor(table *datasource.Memory, seed uint64) editor {
	return editor{table: table, rand: rand.New(rand.NewPCG(seed, seed))}
}

// scan reports the row holding timestamp, the two newest timestamps and the
// largest value in the table.
func (e editor) scan(timestamp int64) (index int, newest, previous int64, peak float64, err error) {
	index = -1
	err = e.table.View(func(rows datasource.Rows) error {
		n := rows.Len()
		for i := 0; i < n; i++ {
			ts, err := rows.Int64(i, 0)
			if err != nil {
				return err
			}
			if ts == timestamp {
				index = i
			}
			previous, newest = newest, ts
			for col := 1; col < len(rows.Columns()); col++ {
				v, err := rows.Float64(i, col)
				if err != nil {
					return err
				}
				peak = max(peak, v)
			}
		}
		if n < 2 {
			previous = newest - defaultStep
		}
		return nil
	})
	return index, newest, previous, peak, err
}

func (e editor) values(timestamp int64, peak float64) []any {
	if peak <= 0 {
		peak = 1
	}
	n := len(e.columns())
	row := make([]any, n)
	row[0] = timestamp
	for i := 1; i < n; i++ {
		row[i] = e.rand.Float64() * peak
	}
	return row
}

func (e editor) columns() []string {
	var columns []string
	e.table.View(func(rows datasource.Rows) error {
		columns = rows.Columns()
		return nil
	})
	return columns
}

// Add appends a random row one sampling interval after the newest row and
// returns its timestamp.
func (e editor) Add() (int64, error) {
	_, newest, previous, peak, err := e.scan(0)
	if err != nil {
		return 0, fmt.Errorf("failed reading table: %w", err)
	}
	step := max(newest-previous, 1)
	ts := newest + step
	if e.table.Len() == 0 {
		ts = time.Now().UnixMilli()
	}
	if err := e.table.Add(e.values(ts, peak)); err != nil {
		return 0, fmt.Errorf("failed adding row: %w", err)
	}
	return ts, nil
}

// Update replaces the values of the row at timestamp with random ones.
func (e editor) Update(timestamp int64) error {
	index, _, _, peak, err := e.scan(timestamp)
	if err != nil {
		return fmt.Errorf("failed reading table: %w", err)
	}
	if index < 0 {
		return fmt.Errorf("no row at timestamp %d", timestamp)
	}
	return e.table.Update(index, e.values(timestamp, peak))
}

// Remove deletes the row at timestamp.
func (e editor) Remove(timestamp int64) error {
	index, _, _, _, err := e.scan(timestamp)
	if err != nil {
		return fmt.Errorf("failed reading table: %w", err)
	}
	if index < 0 {
		return fmt.Errorf("no row at timestamp %d", timestamp)
	}
	return e.table.Remove(index)
}

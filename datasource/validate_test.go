package datasource

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		columns []string
		rows    [][]any
		valid   bool
	}{
		{name: "empty table is exempt", columns: []string{"only"}, valid: true},
		{name: "numeric series", columns: []string{"ts", "a", "b"}, rows: [][]any{{int64(1), 1.5, int64(2)}}, valid: true},
		{name: "null series cell", columns: []string{"ts", "a"}, rows: [][]any{{int64(1), nil}}, valid: true},
		{name: "no series", columns: []string{"ts"}, rows: [][]any{{int64(1)}}},
		{name: "float timestamp", columns: []string{"ts", "a"}, rows: [][]any{{1.5, 1.0}}},
		{name: "text series", columns: []string{"ts", "a"}, rows: [][]any{{int64(1), "high"}}},
		{name: "nan series", columns: []string{"ts", "a"}, rows: [][]any{{int64(1), math.NaN()}}},
		{name: "infinite series", columns: []string{"ts", "a"}, rows: [][]any{{int64(1), math.Inf(-1)}}},
		{name: "late bad row", columns: []string{"ts", "a"}, rows: [][]any{{int64(1), 1.0}, {int64(2), []byte("x")}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMemory(tc.columns...)
			if err := m.Add(tc.rows...); err != nil {
				t.Fatalf("failed building table: %v", err)
			}
			err := Validate(m)
			if tc.valid && err != nil {
				t.Errorf("expected table to validate, got %v", err)
			} else if !tc.valid && !errors.Is(err, ErrSchema) {
				t.Errorf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestValidateClosedTable(t *testing.T) {
	m := NewMemory("ts", "a")
	m.Add([]any{"bad", "row"})
	m.Close()
	if err := Validate(m); err != nil {
		t.Errorf("expected closed table to validate as empty, got %v", err)
	}
}

func TestCursorRejectsNonFiniteValues(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("timestamp,a,b\n1000,NaN,1\n2000,1,2\n"))
	if err != nil {
		t.Fatalf("failed reading csv: %v", err)
	}
	if err := Validate(rows); !errors.Is(err, ErrSchema) {
		t.Errorf("expected NaN to fail validation, got %v", err)
	}
	rows.View(func(r Rows) error {
		c := NewCursor(r)
		c.MoveToFirst()
		if _, err := c.Values(nil); !errors.Is(err, ErrSchema) {
			t.Errorf("expected reading NaN to fail, got %v", err)
		}
		c.MoveToNext()
		if v, err := c.Values(nil); err != nil || len(v) != 2 {
			t.Errorf("expected 2 finite values, got %v (%v)", v, err)
		}
		return nil
	})
}

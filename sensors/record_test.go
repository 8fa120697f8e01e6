package sensors

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

type fixedSensor struct {
	name  string
	unit  Unit
	value float64
	reads int
}

func (f *fixedSensor) Name() string { return f.name }
func (f *fixedSensor) Unit() Unit   { return f.unit }

func (f *fixedSensor) Read() (float64, error) {
	f.reads++
	return f.value, nil
}

func TestRecorderColumns(t *testing.T) {
	r := NewRecorder([]Sensor{
		&fixedSensor{name: "cpu", unit: Watts},
		&fixedSensor{name: "disk", unit: Joules},
	}, NewCSVSink(&bytes.Buffer{}))
	expected := []string{"timestamp", "cpu (W)", "integrated cpu (J)", "disk (J)"}
	cols := r.Columns()
	if len(cols) != len(expected) {
		t.Fatalf("expected %q, got %q", expected, cols)
	}
	for i := range expected {
		if cols[i] != expected[i] {
			t.Errorf("expected column %d to be %q, got %q", i, expected[i], cols[i])
		}
	}
}

func TestBackfillCSV(t *testing.T) {
	var buf bytes.Buffer
	cpu := &fixedSensor{name: "cpu", unit: Watts, value: 10}
	r := NewRecorder([]Sensor{cpu}, NewCSVSink(&buf))
	start := time.UnixMilli(5000)
	if err := r.Backfill(&ManualClock{}, start, 500*time.Millisecond, 3); err != nil {
		t.Fatalf("failed backfilling: %v", err)
	}
	if cpu.reads != 4 {
		t.Errorf("expected a priming read and 3 samples, got %d reads", cpu.reads)
	}
	table, err := datasource.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("failed reading back: %v", err)
	}
	if err := datasource.Validate(table); err != nil {
		t.Errorf("expected a valid table, got %v", err)
	}
	err = table.View(func(rows datasource.Rows) error {
		if rows.Len() != 3 {
			t.Fatalf("expected 3 rows, got %d", rows.Len())
		}
		if ts, _ := rows.Int64(2, 0); ts != 6000 {
			t.Errorf("expected last timestamp 6000, got %d", ts)
		}
		if v, _ := rows.Float64(0, 2); v != 5 {
			t.Errorf("expected 5 J integrated over half a second, got %v", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed viewing: %v", err)
	}
}

func TestBackfillSQL(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "samples.db"))
	if err != nil {
		t.Fatalf("failed opening db: %v", err)
	}
	defer db.Close()
	clock := &ManualClock{}
	sink := NewSQLSink(ctx, db, "samples")
	r := NewRecorder(Synthetic(3, 1, clock.Now), sink)
	if err := r.Backfill(clock, time.UnixMilli(0), time.Second, 10); err != nil {
		t.Fatalf("failed backfilling: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("failed closing sink: %v", err)
	}
	table, err := datasource.OpenSQL(ctx, db, `SELECT * FROM samples ORDER BY timestamp`)
	if err != nil {
		t.Fatalf("failed opening table: %v", err)
	}
	defer table.Close()
	if err := datasource.Validate(table); err != nil {
		t.Errorf("expected a valid table, got %v", err)
	}
	err = table.View(func(rows datasource.Rows) error {
		if rows.Len() != 10 {
			t.Errorf("expected 10 rows, got %d", rows.Len())
		}
		// Two waves with their integrals and one walk.
		if n := len(rows.Columns()); n != 6 {
			t.Errorf("expected 6 columns, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed viewing: %v", err)
	}
}

func TestSyntheticStaysNonNegative(t *testing.T) {
	clock := &ManualClock{}
	list := Synthetic(4, 7, clock.Now)
	for i := 0; i < 200; i++ {
		clock.Set(time.UnixMilli(int64(i) * 250))
		for _, s := range list {
			v, err := s.Read()
			if err != nil {
				t.Fatalf("failed reading %s: %v", s.Name(), err)
			}
			if v < 0 {
				t.Fatalf("expected non-negative values, %s read %v", s.Name(), v)
			}
		}
	}
}

func TestTableSink(t *testing.T) {
	clock := &ManualClock{}
	list := []Sensor{&fixedSensor{name: "cpu", unit: Watts, value: 4}}
	table := datasource.NewMemory(NewRecorder(list, nil).Columns()...)
	changes := 0
	stop := table.Watch(func(ev datasource.Event) {
		if ev == datasource.Changed {
			changes++
		}
	})
	defer stop()
	r := NewRecorder(list, NewTableSink(table))
	if err := r.Backfill(clock, time.UnixMilli(0), time.Second, 5); err != nil {
		t.Fatalf("failed backfilling: %v", err)
	}
	if table.Len() != 5 {
		t.Errorf("expected 5 rows, got %d", table.Len())
	}
	if changes != 5 {
		t.Errorf("expected a change per row, got %d", changes)
	}

	other := NewRecorder([]Sensor{&fixedSensor{name: "gpu", unit: Joules}}, NewTableSink(table))
	if err := other.Start(); err == nil {
		t.Errorf("expected mismatched columns to be rejected")
	}
}

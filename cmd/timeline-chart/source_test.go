package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing csv: %v", err)
	}
	return path
}

func rowCount(t *testing.T, table datasource.Table) int {
	t.Helper()
	var n int
	if err := table.View(func(rows datasource.Rows) error {
		n = rows.Len()
		return nil
	}); err != nil {
		t.Fatalf("failed viewing table: %v", err)
	}
	return n
}

func TestOptionsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	if err := os.WriteFile(path, []byte("graph:\n  bar_width: 20\n"), 0o644); err != nil {
		t.Fatalf("failed writing config: %v", err)
	}
	flags := sourceFlags{config: path, strategy: "append-only", mode: "stack"}
	opts, err := flags.options()
	if err != nil {
		t.Fatalf("failed loading options: %v", err)
	}
	if opts.BarWidth != 20 {
		t.Errorf("expected bar width 20, got %v", opts.BarWidth)
	}
	if _, ok := opts.Strategy.(backend.AppendOnly); !ok {
		t.Errorf("expected append-only strategy, got %T", opts.Strategy)
	}
	if opts.Mode != dataset.Stack {
		t.Errorf("expected stack mode, got %v", opts.Mode)
	}

	flags.mode = "sideways"
	if _, err := flags.options(); err == nil {
		t.Errorf("expected an unknown mode to fail")
	}
}

func TestOpenSources(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "timestamp,a\n1000,1\n2000,2\n")

	src, err := (&sourceFlags{csv: path}).open(ctx)
	if err != nil {
		t.Fatalf("failed opening csv: %v", err)
	}
	if src.Name != "samples.csv" || rowCount(t, src.Table) != 2 {
		t.Errorf("expected 2 rows from samples.csv, got %d from %s", rowCount(t, src.Table), src.Name)
	}
	if cols := src.columns(); len(cols) != 2 || cols[1] != "a" {
		t.Errorf("expected columns [timestamp a], got %q", cols)
	}
	if err := src.Close(); err != nil {
		t.Errorf("failed closing: %v", err)
	}

	if _, err := (&sourceFlags{csv: path, sqlite: "x.db"}).open(ctx); err == nil {
		t.Errorf("expected csv and sqlite together to fail")
	}

	demo, err := (&sourceFlags{demo: 3, interval: time.Second}).open(ctx)
	if err != nil {
		t.Fatalf("failed opening demo: %v", err)
	}
	defer demo.Close()
	if n := rowCount(t, demo.Table); n != demoBackfill {
		t.Errorf("expected %d demo rows, got %d", demoBackfill, n)
	}
	if err := datasource.Validate(demo.Table); err != nil {
		t.Errorf("expected a valid demo table, got %v", err)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	f := generateFlags{
		sensors:  "synthetic",
		series:   2,
		seed:     3,
		interval: 250 * time.Millisecond,
		count:    12,
		backfill: true,
		output:   csvPath,
		table:    "samples",
	}
	if err := runGenerate(context.Background(), f); err != nil {
		t.Fatalf("failed generating csv: %v", err)
	}
	src, err := openCSV(context.Background(), csvPath, false)
	if err != nil {
		t.Fatalf("failed opening generated csv: %v", err)
	}
	defer src.Close()
	if n := rowCount(t, src.Table); n != 12 {
		t.Errorf("expected 12 rows, got %d", n)
	}

	f.output = "-"
	f.sqlite = filepath.Join(dir, "out.db")
	if err := runGenerate(context.Background(), f); err != nil {
		t.Fatalf("failed generating sqlite: %v", err)
	}
	db, err := openSQLite(context.Background(), f.sqlite, defaultQuery, false, time.Second)
	if err != nil {
		t.Fatalf("failed opening generated db: %v", err)
	}
	defer db.Close()
	if n := rowCount(t, db.Table); n != 12 {
		t.Errorf("expected 12 rows, got %d", n)
	}

	f.sensors = "rapl"
	if err := runGenerate(context.Background(), f); err == nil {
		t.Errorf("expected rapl backfill to be rejected")
	}
}

func TestBellThrottles(t *testing.T) {
	var out bytes.Buffer
	b := newBell(&out)
	now := time.Unix(0, 0)
	b.now = func() time.Time { return now }
	for i := 0; i < 3; i++ {
		if err := b.Play("system"); err != nil {
			t.Fatalf("failed ringing: %v", err)
		}
		now = now.Add(10 * time.Millisecond)
	}
	now = now.Add(time.Second)
	b.Play("system")
	if got := strings.Count(out.String(), "\a"); got != 2 {
		t.Errorf("expected 2 rings, got %d", got)
	}
	if err := b.Play("click.wav"); err == nil {
		t.Errorf("expected sound files to be unsupported")
	}
}

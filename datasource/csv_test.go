package datasource

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing %q: %v", path, err)
	}
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed opening %q: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed appending to %q: %v", path, err)
	}
}

func TestCSVRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	writeFile(t, path, "timestamp, cpu, gpu\n1000, 1.5, 2\n2000, 3,\n3000, 4")
	c, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("failed opening csv: %v", err)
	}
	defer c.Close()
	if err := Validate(c); err != nil {
		t.Errorf("expected csv to validate, got %v", err)
	}
	c.View(func(rows Rows) error {
		if rows.Len() != 2 {
			t.Errorf("expected the partial last line to be held back, got %d rows", rows.Len())
		}
		if cols := rows.Columns(); cols[1] != "cpu" {
			t.Errorf("expected trimmed column names, got %q", cols)
		}
		if typ := rows.Type(1, 2); typ != Null {
			t.Errorf("expected empty cell to be null, got %v", typ)
		}
		return nil
	})

	changed := 0
	c.Watch(func(ev Event) {
		if ev == Changed {
			changed++
		}
	})
	appendFile(t, path, "\n4000, 5, 6\n")
	n, err := c.Refresh()
	if err != nil {
		t.Fatalf("failed refreshing: %v", err)
	}
	if n != 2 || changed != 1 {
		t.Errorf("expected 2 new rows and one notification, got %d rows and %d notifications", n, changed)
	}
	if n, _ := c.Refresh(); n != 0 || changed != 1 {
		t.Errorf("expected an idle refresh to stay quiet, got %d rows and %d notifications", n, changed)
	}
}

func TestCSVFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	writeFile(t, path, "timestamp,a\n1,1\n")
	c, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("failed opening csv: %v", err)
	}
	defer c.Close()
	notified := make(chan struct{}, 1)
	c.Watch(func(ev Event) {
		if ev == Changed {
			select {
			case notified <- struct{}{}:
			default:
			}
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Follow(ctx)

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for ts := 2; ; ts++ {
		select {
		case <-notified:
			return
		case <-deadline:
			t.Fatalf("expected appended rows to be noticed")
		case <-tick.C:
			appendFile(t, path, strconv.Itoa(ts)+",1\n")
		}
	}
}

func TestReadCSV(t *testing.T) {
	m, err := ReadCSV(strings.NewReader("timestamp, a, b\n1000, 1, 2.5\n2000, , 3\n"))
	if err != nil {
		t.Fatalf("failed reading: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", m.Len())
	}
	if err := Validate(m); err != nil {
		t.Errorf("expected a valid table, got %v", err)
	}
	err = m.View(func(rows Rows) error {
		if cols := rows.Columns(); len(cols) != 3 || cols[1] != "a" {
			t.Errorf("expected trimmed columns, got %q", cols)
		}
		if typ := rows.Type(1, 1); typ != Null {
			t.Errorf("expected empty cell to be null, got %s", typ)
		}
		if v, _ := rows.Float64(0, 2); v != 2.5 {
			t.Errorf("expected 2.5, got %v", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed viewing: %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Errorf("expected missing header to fail")
	}
}

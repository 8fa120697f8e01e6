package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// CSV is a table read from a comma separated file with a header line. The
// file may keep growing; Refresh and Follow pick up appended rows. A last
// line without its newline is held back until the newline is written.
type CSV struct {
	store
	path string

	readLock sync.Mutex
	file     *os.File
	reader   *csv.Reader
}

var _ Table = (*CSV)(nil)

// OpenCSV reads the header and every complete row currently in the file.
func OpenCSV(path string) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening %q: %w", path, err)
	}
	c := &CSV{path: path, file: f}
	c.reader = csv.NewReader(newLineReader(f))
	c.reader.TrimLeadingSpace = true
	c.reader.FieldsPerRecord = -1
	header, err := c.reader.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed reading header of %q: %w", path, err)
	}
	c.columns = lo.Map(header, func(h string, _ int) string {
		return strings.TrimSpace(h)
	})
	if _, err := c.readAvailable(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// Path is the file backing the table.
func (c *CSV) Path() string {
	return c.path
}

// Refresh reads the rows appended since the last read and notifies watchers
// when there were any.
func (c *CSV) Refresh() (int, error) {
	n, err := c.readAvailable()
	if n > 0 {
		c.watchers.notify(Changed)
	}
	return n, err
}

func (c *CSV) readAvailable() (int, error) {
	c.readLock.Lock()
	defer c.readLock.Unlock()
	if c.reader == nil {
		return 0, ErrClosed
	}
	var added [][]any
	for {
		rec, err := c.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Printf("skipping malformed record in %q: %v", c.path, err)
				continue
			}
			return 0, fmt.Errorf("failed reading %q: %w", c.path, err)
		}
		added = append(added, lo.Map(rec, func(cell string, _ int) any {
			return parseCell(cell)
		}))
	}
	if len(added) == 0 {
		return 0, nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	c.rows = append(c.rows, added...)
	return len(added), nil
}

// Follow watches the file until ctx is done, reading new rows on every write.
// Removing or renaming the file invalidates the table.
func (c *CSV) Follow(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed creating file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(c.path); err != nil {
		return fmt.Errorf("failed watching %q: %w", c.path, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Write):
				if _, err := c.Refresh(); err != nil {
					if errors.Is(err, ErrClosed) {
						return nil
					}
					log.Printf("failed refreshing %q: %v", c.path, err)
				}
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				c.watchers.notify(Invalidated)
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("file watcher for %q: %v", c.path, err)
		}
	}
}

// Close releases the file and notifies watchers with Invalidated.
func (c *CSV) Close() error {
	c.readLock.Lock()
	var err error
	if c.file != nil {
		err = c.file.Close()
		c.file = nil
		c.reader = nil
	}
	c.readLock.Unlock()
	if c.close() {
		c.watchers.notify(Invalidated)
	}
	return err
}

// ReadCSV loads a complete comma separated document with a header line into
// a Memory table. Use OpenCSV for files that keep growing.
func ReadCSV(r io.Reader) (*Memory, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing csv header: %w", ErrSchema)
	}
	m := NewMemory(lo.Map(records[0], func(h string, _ int) string {
		return strings.TrimSpace(h)
	})...)
	rows := lo.Map(records[1:], func(rec []string, _ int) []any {
		return lo.Map(rec, func(cell string, _ int) any {
			return parseCell(cell)
		})
	})
	if err := m.Add(rows...); err != nil {
		return nil, fmt.Errorf("failed loading csv: %w", err)
	}
	return m, nil
}

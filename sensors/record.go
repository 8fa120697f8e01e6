package sensors

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

// Sink stores recorded rows. The first column is always the timestamp in
// milliseconds.
type Sink interface {
	Begin(columns []string) error
	Write(timestamp int64, values []float64) error
	Flush() error
}

// CSVSink writes rows as comma separated text.
type CSVSink struct {
	w *csv.Writer
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func (c *CSVSink) Begin(columns []string) error {
	return c.w.Write(columns)
}

func (c *CSVSink) Write(timestamp int64, values []float64) error {
	rec := make([]string, 0, len(values)+1)
	rec = append(rec, strconv.FormatInt(timestamp, 10))
	for _, v := range values {
		rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return c.w.Write(rec)
}

func (c *CSVSink) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// SQLSink inserts rows into a table it creates on Begin.
type SQLSink struct {
	ctx    context.Context
	db     *sql.DB
	table  string
	insert *sql.Stmt
}

func NewSQLSink(ctx context.Context, db *sql.DB, table string) *SQLSink {
	return &SQLSink{ctx: ctx, db: db, table: table}
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLSink) Begin(columns []string) error {
	defs := lo.Map(columns[1:], func(c string, _ int) string {
		return quote(c) + " REAL"
	})
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY, %s)",
		quote(s.table), quote(columns[0]), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(s.ctx, create); err != nil {
		return fmt.Errorf("failed creating table %s: %w", s.table, err)
	}
	insert := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quote(s.table),
		strings.Join(lo.Map(columns, func(c string, _ int) string { return quote(c) }), ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
	stmt, err := s.db.PrepareContext(s.ctx, insert)
	if err != nil {
		return fmt.Errorf("failed preparing insert: %w", err)
	}
	s.insert = stmt
	return nil
}

func (s *SQLSink) Write(timestamp int64, values []float64) error {
	args := make([]any, 0, len(values)+1)
	args = append(args, timestamp)
	for _, v := range values {
		args = append(args, v)
	}
	if _, err := s.insert.ExecContext(s.ctx, args...); err != nil {
		return fmt.Errorf("failed inserting row %d: %w", timestamp, err)
	}
	return nil
}

func (s *SQLSink) Flush() error {
	return nil
}

// Close releases the prepared insert. The database stays open.
func (s *SQLSink) Close() error {
	if s.insert == nil {
		return nil
	}
	return s.insert.Close()
}

// TableSink appends rows to an in-memory table, so that a chart observing
// the table sees samples as they are recorded.
type TableSink struct {
	table *datasource.Memory
}

func NewTableSink(table *datasource.Memory) *TableSink {
	return &TableSink{table: table}
}

func (t *TableSink) Begin(columns []string) error {
	var have []string
	err := t.table.View(func(rows datasource.Rows) error {
		have = rows.Columns()
		return nil
	})
	if err != nil {
		return err
	}
	if !slices.Equal(have, columns) {
		return fmt.Errorf("table has columns %q, recording %q", have, columns)
	}
	return nil
}

func (t *TableSink) Write(timestamp int64, values []float64) error {
	row := make([]any, 0, len(values)+1)
	row = append(row, timestamp)
	for _, v := range values {
		row = append(row, v)
	}
	return t.table.Add(row)
}

func (t *TableSink) Flush() error {
	return nil
}

// Recorder samples a list of sensors into a sink. Sensors reporting Watts
// get an extra column holding the energy integrated over the sample
// interval.
type Recorder struct {
	sensors []Sensor
	sink    Sink
	values  []float64
}

func NewRecorder(list []Sensor, sink Sink) *Recorder {
	return &Recorder{sensors: list, sink: sink}
}

// Columns names the recorded columns, timestamp first.
func (r *Recorder) Columns() []string {
	cols := []string{"timestamp"}
	for _, s := range r.sensors {
		cols = append(cols, fmt.Sprintf("%s (%s)", s.Name(), s.Unit()))
		if s.Unit() == Watts {
			cols = append(cols, fmt.Sprintf("integrated %s (%s)", s.Name(), Joules))
		}
	}
	return cols
}

// Start writes the header and reads every sensor once so that incremental
// sensors emit coherent first values.
func (r *Recorder) Start() error {
	if len(r.sensors) == 0 {
		return fmt.Errorf("no sensors to record")
	}
	if err := r.sink.Begin(r.Columns()); err != nil {
		return fmt.Errorf("failed writing header: %w", err)
	}
	for _, s := range r.sensors {
		if _, err := s.Read(); err != nil {
			return fmt.Errorf("failed reading %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Sample reads every sensor and writes one row stamped at.
func (r *Recorder) Sample(at time.Time, interval time.Duration) error {
	r.values = r.values[:0]
	for _, s := range r.sensors {
		v, err := s.Read()
		if err != nil {
			return fmt.Errorf("failed reading %s: %w", s.Name(), err)
		}
		r.values = append(r.values, v)
		if s.Unit() == Watts {
			r.values = append(r.values, v*interval.Seconds())
		}
	}
	return r.sink.Write(at.UnixMilli(), r.values)
}

// Run samples every interval until ctx is done or count rows were written.
// A count of zero records forever. Samples whose reads took longer than two
// intervals are dropped.
func (r *Recorder) Run(ctx context.Context, interval time.Duration, count int) error {
	if err := r.Start(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastReadTime := time.Now()
	for written := 0; count == 0 || written < count; {
		select {
		case <-ctx.Done():
			return r.sink.Flush()
		case sampleEndTime := <-ticker.C:
			if readDuration := time.Since(lastReadTime); readDuration >= interval*2 {
				log.Printf("dropping sample with read duration %d >= sample rate %d", readDuration, interval)
				lastReadTime = sampleEndTime
				continue
			}
			if err := r.Sample(sampleEndTime, sampleEndTime.Sub(lastReadTime)); err != nil {
				return err
			}
			if err := r.sink.Flush(); err != nil {
				return fmt.Errorf("failed flushing: %w", err)
			}
			written++
			lastReadTime = sampleEndTime
		}
	}
	return r.sink.Flush()
}

// Backfill writes count rows from start without waiting, moving clock to
// each sample time first.
func (r *Recorder) Backfill(clock *ManualClock, start time.Time, interval time.Duration, count int) error {
	clock.Set(start)
	if err := r.Start(); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		at := start.Add(time.Duration(i) * interval)
		clock.Set(at)
		if err := r.Sample(at, interval); err != nil {
			return err
		}
	}
	return r.sink.Flush()
}

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	lock sync.Mutex
	t    time.Time
}

func (c *ManualClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.t
}

func (c *ManualClock) Set(t time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.t = t
}

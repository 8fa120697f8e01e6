package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/config"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
	"git.sr.ht/~whereswaldon/timeline-chart/sensors"
)

const defaultQuery = `SELECT * FROM samples ORDER BY timestamp`

// sourceFlags are the flags shared by every command that charts a table.
type sourceFlags struct {
	csv      string
	sqlite   string
	query    string
	follow   bool
	poll     time.Duration
	demo     int
	interval time.Duration
	config   string
	strategy string
	mode     string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fl := cmd.PersistentFlags()
	fl.StringVar(&f.csv, "csv", "", "CSV file to chart, timestamp in the first column")
	fl.StringVar(&f.sqlite, "sqlite", "", "SQLite database to chart")
	fl.StringVar(&f.query, "query", defaultQuery, "query selecting the rows of the sqlite database")
	fl.BoolVarP(&f.follow, "follow", "f", false, "keep reading rows as the source grows")
	fl.DurationVar(&f.poll, "poll", time.Second, "interval between sqlite queries when following")
	fl.IntVar(&f.demo, "demo-series", 4, "number of synthetic series charted when no source is given")
	fl.DurationVar(&f.interval, "demo-interval", time.Second, "interval between synthetic samples")
	fl.StringVarP(&f.config, "config", "c", "", "YAML chart configuration")
	fl.StringVar(&f.strategy, "strategy", "", "recompute strategy: full, preserve-no-deletes or append-only")
	fl.StringVar(&f.mode, "mode", "", "graph mode: overlap, stack or side-by-side")
}

// options loads the configuration and applies the flag overrides.
func (f *sourceFlags) options() (chart.Options, error) {
	attrs, err := config.Load(f.config)
	if err != nil {
		return chart.Options{}, err
	}
	opts, err := attrs.Options()
	if err != nil {
		return chart.Options{}, err
	}
	if f.strategy != "" {
		if opts.Strategy, err = backend.ParseStrategy(f.strategy); err != nil {
			return chart.Options{}, err
		}
	}
	if f.mode != "" {
		if opts.Mode, err = dataset.ParseMode(f.mode); err != nil {
			return chart.Options{}, err
		}
	}
	return opts, nil
}

// source is an opened table along with what it takes to release it.
type source struct {
	Name  string
	Table datasource.Table
	close func() error
}

func (s source) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// columns returns the column names of the table.
func (s source) columns() []string {
	var cols []string
	if err := s.Table.View(func(rows datasource.Rows) error {
		cols = rows.Columns()
		return nil
	}); err != nil {
		log.Printf("failed reading columns of %s: %v", s.Name, err)
	}
	return cols
}

// open opens the table selected by the flags. Following sources keep
// updating until ctx is done.
func (f *sourceFlags) open(ctx context.Context) (source, error) {
	switch {
	case f.csv != "" && f.sqlite != "":
		return source{}, errors.New("--csv and --sqlite are mutually exclusive")
	case f.csv != "":
		return openCSV(ctx, f.csv, f.follow)
	case f.sqlite != "":
		return openSQLite(ctx, f.sqlite, f.query, f.follow, f.poll)
	default:
		return openDemo(ctx, f.demo, f.interval, f.follow)
	}
}

func openCSV(ctx context.Context, path string, follow bool) (source, error) {
	table, err := datasource.OpenCSV(path)
	if err != nil {
		return source{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	if follow {
		go func() {
			if err := table.Follow(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("stopped following %s: %v", path, err)
			}
		}()
	}
	return source{
		Name:  filepath.Base(path),
		Table: table,
		close: func() error {
			cancel()
			return table.Close()
		},
	}, nil
}

func openSQLite(ctx context.Context, path, query string, follow bool, poll time.Duration) (source, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return source{}, fmt.Errorf("failed opening %s: %w", path, err)
	}
	table, err := datasource.OpenSQL(ctx, db, query)
	if err != nil {
		db.Close()
		return source{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	if follow {
		go func() {
			if err := table.Poll(ctx, poll); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("stopped polling %s: %v", path, err)
			}
		}()
	}
	return source{
		Name:  filepath.Base(path),
		Table: table,
		close: func() error {
			cancel()
			return errors.Join(table.Close(), db.Close())
		},
	}, nil
}

// demoBackfill is how many samples a demo table starts with.
const demoBackfill = 120

// openDemo records synthetic sensors into a memory table, starting with a
// backfilled history. When following, a sample is appended every interval.
func openDemo(ctx context.Context, series int, interval time.Duration, follow bool) (source, error) {
	if series < 1 {
		return source{}, fmt.Errorf("demo needs at least one series, got %d", series)
	}
	if interval <= 0 {
		return source{}, fmt.Errorf("demo interval must be positive, got %v", interval)
	}
	clock := &sensors.ManualClock{}
	list := sensors.Synthetic(series, time.Now().UnixNano(), clock.Now)
	table := datasource.NewMemory(sensors.NewRecorder(list, nil).Columns()...)
	rec := sensors.NewRecorder(list, sensors.NewTableSink(table))
	now := time.Now().Truncate(interval)
	if err := rec.Backfill(clock, now.Add(-demoBackfill*interval), interval, demoBackfill); err != nil {
		return source{}, fmt.Errorf("failed generating demo data: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	if follow {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-ticker.C:
					clock.Set(t)
					if err := rec.Sample(t, interval); err != nil {
						log.Printf("stopped demo recording: %v", err)
						return
					}
				}
			}
		}()
	}
	return source{
		Name:  "demo",
		Table: table,
		close: func() error {
			cancel()
			return table.Close()
		},
	}, nil
}

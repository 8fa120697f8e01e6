package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/timeline-chart/rapl"
	"git.sr.ht/~whereswaldon/timeline-chart/sensors"
)

type generateFlags struct {
	sensors  string
	series   int
	seed     int64
	interval time.Duration
	count    int
	backfill bool
	output   string
	sqlite   string
	table    string
}

func newGenerateCommand() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Record sensor samples as a CSV file or SQLite table",
		Long: `generate samples sensors at a fixed interval and records one row per sample,
timestamp in milliseconds first. Sensors reporting watts get an extra column
with the energy integrated over the sample.

Reading RAPL counters usually requires root permissions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.sensors, "sensors", "synthetic", "sensors to sample: synthetic or rapl")
	fl.IntVar(&f.series, "series", 4, "number of synthetic sensors")
	fl.Int64Var(&f.seed, "seed", 1, "seed of the synthetic random walks")
	fl.DurationVar(&f.interval, "sample-interval", 100*time.Millisecond, "interval between samples")
	fl.IntVar(&f.count, "count", 0, "number of samples to record, 0 records until interrupted")
	fl.BoolVar(&f.backfill, "backfill", false, "write count synthetic samples ending now without waiting")
	fl.StringVarP(&f.output, "output", "o", "-", "CSV file to write")
	fl.StringVar(&f.sqlite, "sqlite-output", "", "SQLite database to write instead of CSV")
	fl.StringVar(&f.table, "table", "samples", "table to create in the SQLite database")
	return cmd
}

func findSensors(f generateFlags, clock func() time.Time) ([]sensors.Sensor, error) {
	switch f.sensors {
	case "synthetic":
		if f.series < 1 {
			return nil, fmt.Errorf("need at least one synthetic sensor, got %d", f.series)
		}
		return sensors.Synthetic(f.series, f.seed, clock), nil
	case "rapl":
		if runtime.GOOS != "linux" {
			return nil, fmt.Errorf("RAPL sensors are not supported on %s", runtime.GOOS)
		}
		list, err := rapl.FindRAPL(rapl.Root)
		if err != nil {
			return nil, fmt.Errorf("failed loading RAPL sensors: %w", err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unknown sensors %q", f.sensors)
}

// openSink returns the sink selected by the flags and a function flushing
// and closing it.
func openSink(ctx context.Context, f generateFlags) (sensors.Sink, func() error, error) {
	if f.sqlite != "" {
		db, err := sql.Open("sqlite3", f.sqlite)
		if err != nil {
			return nil, nil, fmt.Errorf("failed opening %s: %w", f.sqlite, err)
		}
		sink := sensors.NewSQLSink(ctx, db, f.table)
		return sink, func() error {
			return errors.Join(sink.Close(), db.Close())
		}, nil
	}
	var output io.WriteCloser = nopCloser{os.Stdout}
	if f.output != "-" {
		file, err := os.Create(f.output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed opening output file %q: %w", f.output, err)
		}
		output = file
	}
	sink := sensors.NewCSVSink(output)
	return sink, func() error {
		return errors.Join(sink.Flush(), output.Close())
	}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func runGenerate(ctx context.Context, f generateFlags) error {
	if f.interval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %v", f.interval)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	clock := &sensors.ManualClock{}
	clockFn := time.Now
	if f.backfill {
		if f.sensors != "synthetic" {
			return errors.New("only synthetic sensors can be backfilled")
		}
		if f.count < 1 {
			return errors.New("backfilling needs a positive count")
		}
		clockFn = clock.Now
	}
	list, err := findSensors(f, clockFn)
	if err != nil {
		return err
	}
	sink, closeSink, err := openSink(ctx, f)
	if err != nil {
		return err
	}
	rec := sensors.NewRecorder(list, sink)
	if f.backfill {
		start := time.Now().Add(-time.Duration(f.count) * f.interval)
		err = rec.Backfill(clock, start, f.interval, f.count)
	} else {
		err = rec.Run(ctx, f.interval, f.count)
	}
	if cerr := closeSink(); cerr != nil {
		log.Printf("failed closing output: %v", cerr)
		err = errors.Join(err, cerr)
	}
	return err
}

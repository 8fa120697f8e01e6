package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

// Status describes the table the window should chart.
type Status struct {
	// Source names the table, empty before the first load.
	Source  string
	Table   datasource.Table
	Columns []string
	Loading bool
	Err     error
}

// Loader opens tables off the UI goroutine and publishes the outcome to
// every status subscriber. Replacing a table closes the previous one.
type Loader struct {
	ctx    context.Context
	follow bool

	lock        sync.Mutex
	status      Status
	current     source
	subscribers map[chan Status]struct{}
}

func NewLoader(ctx context.Context, follow bool) *Loader {
	return &Loader{
		ctx:         ctx,
		follow:      follow,
		subscribers: map[chan Status]struct{}{},
	}
}

// Status streams the current status followed by every change until ctx is
// done. Slow readers only see the latest status.
func (l *Loader) Status(ctx context.Context) <-chan Status {
	out := make(chan Status, 1)
	l.lock.Lock()
	out <- l.status
	l.subscribers[out] = struct{}{}
	l.lock.Unlock()
	go func() {
		<-ctx.Done()
		l.lock.Lock()
		defer l.lock.Unlock()
		delete(l.subscribers, out)
		close(out)
	}()
	return out
}

// publish must be called with the lock held.
func (l *Loader) publish() {
	for sub := range l.subscribers {
		select {
		case <-sub:
		default:
		}
		sub <- l.status
	}
}

// Load opens a table in the background.
func (l *Loader) Load(name string, open func(ctx context.Context) (source, error)) {
	l.lock.Lock()
	l.status.Loading = true
	l.status.Err = nil
	l.publish()
	l.lock.Unlock()
	go func() {
		src, err := open(l.ctx)
		if err == nil {
			err = datasource.Validate(src.Table)
			if err != nil {
				src.Close()
			}
		}
		l.lock.Lock()
		defer l.lock.Unlock()
		l.status.Loading = false
		if err != nil {
			log.Printf("failed loading %s: %v", name, err)
			l.status.Err = fmt.Errorf("failed loading %s: %w", name, err)
			l.publish()
			return
		}
		if cerr := l.current.Close(); cerr != nil {
			log.Printf("failed closing %s: %v", l.current.Name, cerr)
		}
		l.current = src
		l.status = Status{
			Source:  src.Name,
			Table:   src.Table,
			Columns: src.columns(),
		}
		l.publish()
	}()
}

// LoadFile charts a file picked by the user. Files on disk are followed
// when the loader follows its sources; anything else is read once.
func (l *Loader) LoadFile(file io.ReadCloser) {
	if f, ok := file.(*os.File); ok {
		path := f.Name()
		f.Close()
		l.Load(path, func(ctx context.Context) (source, error) {
			return openCSV(ctx, path, l.follow)
		})
		return
	}
	l.Load("chosen file", func(ctx context.Context) (source, error) {
		defer file.Close()
		table, err := datasource.ReadCSV(file)
		if err != nil {
			return source{}, err
		}
		return source{Name: "chosen file", Table: table, close: table.Close}, nil
	})
}

// Fail reports an error that happened outside of a load.
func (l *Loader) Fail(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.status.Err = err
	l.publish()
}

// Close releases the current table.
func (l *Loader) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	err := l.current.Close()
	l.current = source{}
	return err
}

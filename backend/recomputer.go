package backend

import (
	"context"
	"errors"
	"log"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/datasource"
)

// Request asks the worker to rebuild the snapshot of a table.
type Request struct {
	Table    datasource.Table
	Mode     dataset.Mode
	Strategy Strategy
	// Animate asks the receiver to play the zoom transition around the swap.
	Animate bool
}

// Completed is posted back once a request has been computed.
type Completed struct {
	Request
	Result
	Err error
}

// Recomputer runs requests one at a time on a dedicated goroutine, in the
// order they were enqueued. Each computation uses the snapshot produced by
// the previous one for the same table as its baseline.
type Recomputer struct {
	queue *Mailbox[Request]
	post  func(Completed)
	loc   *time.Location
	done  chan struct{}

	// Only touched by the worker goroutine.
	baseline      *dataset.Snapshot
	baselineTable datasource.Table
}

// NewRecomputer starts the worker. post is called on the worker goroutine
// with every result and must not block. The worker stops when ctx is done.
func NewRecomputer(ctx context.Context, loc *time.Location, post func(Completed)) *Recomputer {
	r := &Recomputer{
		queue: NewMailbox[Request](),
		post:  post,
		loc:   loc,
		done:  make(chan struct{}),
	}
	go r.run(ctx)
	return r
}

// Enqueue schedules a recompute behind any already queued.
func (r *Recomputer) Enqueue(req Request) {
	r.queue.Post(req)
}

// Done is closed once the worker has exited.
func (r *Recomputer) Done() <-chan struct{} {
	return r.done
}

func (r *Recomputer) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.queue.Ready():
			for _, req := range r.queue.Drain() {
				r.post(r.compute(req))
			}
		}
	}
}

func (r *Recomputer) compute(req Request) Completed {
	if req.Table != r.baselineTable {
		r.baseline = nil
		r.baselineTable = req.Table
	}
	out := Completed{Request: req}
	if req.Table == nil {
		out.Result = Result{Snapshot: dataset.Empty}
		r.baseline = out.Snapshot
		return out
	}
	err := req.Table.View(func(rows datasource.Rows) error {
		var err error
		out.Result, err = Compute(req.Strategy, Input{
			Rows:  rows,
			Mode:  req.Mode,
			Prior: r.baseline,
			Loc:   r.loc,
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, datasource.ErrClosed) {
			log.Printf("failed recomputing chart data, showing nothing: %v", err)
			out.Err = err
		}
		out.Snapshot = dataset.Empty
	}
	r.baseline = out.Snapshot
	return out
}

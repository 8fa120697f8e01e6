package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"slices"
	"time"
)

// SQL is a table holding the result of a query. The query must return the
// timestamp in its first column. Requery reruns it and Poll does so
// periodically, notifying watchers when the result changed.
type SQL struct {
	store
	db    *sql.DB
	query string
	args  []any
}

var _ Table = (*SQL)(nil)

// OpenSQL runs query once to populate the table.
func OpenSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*SQL, error) {
	t := &SQL{db: db, query: query, args: slices.Clone(args)}
	if _, err := t.Requery(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Requery reruns the query and reports whether the result differs from the
// previous one.
func (t *SQL) Requery(ctx context.Context) (bool, error) {
	rows, err := t.db.QueryContext(ctx, t.query, t.args...)
	if err != nil {
		return false, fmt.Errorf("failed querying table: %w", err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return false, fmt.Errorf("failed reading columns: %w", err)
	}
	var result [][]any
	for rows.Next() {
		row := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return false, fmt.Errorf("failed scanning row %d: %w", len(result), err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed iterating rows: %w", err)
	}
	t.lock.RLock()
	closed := t.closed
	t.lock.RUnlock()
	if closed {
		return false, ErrClosed
	}
	changed := t.replace(columns, result)
	if changed {
		t.watchers.notify(Changed)
	}
	return changed, nil
}

// Poll reruns the query every interval until ctx is done or the table is
// closed.
func (t *SQL) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := t.Requery(ctx); err != nil {
				if err == ErrClosed {
					return nil
				}
				log.Printf("failed polling table: %v", err)
			}
		}
	}
}

// Close forgets the rows and notifies watchers with Invalidated. The
// database handle belongs to the caller and stays open.
func (t *SQL) Close() error {
	if t.close() {
		t.watchers.notify(Invalidated)
	}
	return nil
}

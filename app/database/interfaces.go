package database

import "context"

// Store is the append-only MOTD history.
type Store interface {
	// Get returns nil when no record exists for key. A consistent read
	// observes every write that completed before it.
	Get(ctx context.Context, key int64, consistent bool) (*Record, error)
	// InsertIfAbsent writes rec unless its key exists and reports whether
	// the record was written.
	InsertIfAbsent(ctx context.Context, rec Record) (bool, error)
	// Scan returns the page following cursor. The first page is requested
	// with an empty cursor.
	Scan(ctx context.Context, cursor string, consistent bool) (Page, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

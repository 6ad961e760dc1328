// Package store defines the tabular data store the patrol services write
// their event logs and master data through. Rows are header-keyed records;
// insertion order is row order, which the processor and aggregator rely on.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrBusy is returned when the store-wide write lock could not be acquired
// within the bounded wait. Callers surface it as a retryable condition.
var ErrBusy = errors.New("store busy: lock wait timed out")

// TimestampColumn is stamped by the store itself on append, when the table
// declares it. Event ordering and day-bucketing read this value back.
const TimestampColumn = "timestamp"

// Record is a single row, keyed by header name. Missing columns read as "".
type Record map[string]string

func (r Record) Get(key string) string {
	return r[key]
}

// Clone returns an independent copy so callers can hold rows across reads.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// TabularStore is the collaborator contract for the sheet-like backing store.
//
// Reads are unlocked snapshots. All appends to shared tables must happen
// inside WithLock: the lock is scoped to the whole store, acquired with a
// bounded wait, and must be held as briefly as possible (no network I/O
// while holding it).
type TabularStore interface {
	// EnsureTable creates the table with the given header row if it does
	// not exist yet. Existing tables are left untouched.
	EnsureTable(table string, headers []string) error

	// ReadAll returns every row of the table in insertion order.
	ReadAll(ctx context.Context, table string) ([]Record, error)

	// AppendRow appends a row. If the table declares a timestamp column and
	// the record does not carry one, the store assigns the write time.
	AppendRow(ctx context.Context, table string, rec Record) error

	// FindAndUpdateRow patches the first row matching the predicate and
	// reports whether a row was found.
	FindAndUpdateRow(ctx context.Context, table string, match func(Record) bool, patch Record) (bool, error)

	// WithLock runs fn under the store-wide mutual exclusion lock,
	// returning ErrBusy if the lock cannot be acquired in time.
	WithLock(ctx context.Context, fn func() error) error
}

// StampTimestamp fills the timestamp column when the table declares one and
// the record has not set it. Shared by the store implementations.
func StampTimestamp(rec Record, headers []string, now time.Time) {
	for _, h := range headers {
		if h == TimestampColumn {
			if rec[TimestampColumn] == "" {
				rec[TimestampColumn] = now.Format(time.RFC3339)
			}
			return
		}
	}
}

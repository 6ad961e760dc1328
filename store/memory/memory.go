// Package memory is an in-process TabularStore used by unit tests and local
// development. It mirrors the semantics of the sheet-backed stores: header
// rows, insertion order, store-wide timed lock.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vks.la/patrol/store"
)

type table struct {
	headers []string
	rows    []store.Record
}

type Store struct {
	mu     sync.Mutex
	tables map[string]*table

	// lock is the store-wide write lock. A buffered channel of one gives a
	// timed TryLock without depending on sync.Mutex internals.
	lock     chan struct{}
	LockWait time.Duration

	// Now is injectable so tests can control write timestamps.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		tables:   make(map[string]*table),
		lock:     make(chan struct{}, 1),
		LockWait: 10 * time.Second,
		Now:      time.Now,
	}
}

func (s *Store) EnsureTable(tableName string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[tableName]; ok {
		return nil
	}
	s.tables[tableName] = &table{headers: append([]string(nil), headers...)}
	return nil
}

func (s *Store) ReadAll(ctx context.Context, tableName string) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}
	out := make([]store.Record, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, tableName string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableName]
	if !ok {
		return fmt.Errorf("table %s does not exist", tableName)
	}
	row := rec.Clone()
	store.StampTimestamp(row, t.headers, s.Now())
	t.rows = append(t.rows, row)
	return nil
}

func (s *Store) FindAndUpdateRow(ctx context.Context, tableName string, match func(store.Record) bool, patch store.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableName]
	if !ok {
		return false, fmt.Errorf("table %s does not exist", tableName)
	}
	for _, row := range t.rows {
		if match(row.Clone()) {
			for k, v := range patch {
				row[k] = v
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) WithLock(ctx context.Context, fn func() error) error {
	select {
	case s.lock <- struct{}{}:
	case <-time.After(s.LockWait):
		return store.ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.lock }()
	return fn()
}

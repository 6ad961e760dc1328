// Package excel backs the TabularStore with a single xlsx workbook: one
// sheet per table, header row first. This is the production store for
// deployments that keep their master data in a spreadsheet.
package excel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"vks.la/patrol/store"
)

type Store struct {
	mu   sync.Mutex
	path string
	f    *excelize.File

	lock     chan struct{}
	LockWait time.Duration
	Now      func() time.Time
}

// Open loads the workbook at path, creating it if it does not exist.
func Open(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook %s: %w", path, err)
		}
	}
	return &Store{
		path:     path,
		f:        f,
		lock:     make(chan struct{}, 1),
		LockWait: 10 * time.Second,
		Now:      time.Now,
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func (s *Store) EnsureTable(table string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.f.GetSheetIndex(table)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", table, err)
	}
	if idx >= 0 {
		return nil
	}

	if _, err := s.f.NewSheet(table); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", table, err)
	}
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := s.f.SetSheetRow(table, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header row for %s: %w", table, err)
	}
	return s.save()
}

func (s *Store) ReadAll(ctx context.Context, table string) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers, rows, err := s.readSheet(table)
	if err != nil {
		return nil, err
	}

	out := make([]store.Record, 0, len(rows))
	for _, cells := range rows {
		rec := store.Record{}
		for i, h := range headers {
			if i < len(cells) {
				rec[h] = cells[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers, rows, err := s.readSheet(table)
	if err != nil {
		return err
	}

	rec = rec.Clone()
	store.StampTimestamp(rec, headers, s.Now())

	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = rec[h]
	}

	// Row 1 is the header, data starts at row 2.
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+2)
	if err != nil {
		return err
	}
	if err := s.f.SetSheetRow(table, cell, &values); err != nil {
		return fmt.Errorf("failed to append to %s: %w", table, err)
	}
	return s.save()
}

func (s *Store) FindAndUpdateRow(ctx context.Context, table string, match func(store.Record) bool, patch store.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers, rows, err := s.readSheet(table)
	if err != nil {
		return false, err
	}

	colOf := make(map[string]int, len(headers))
	for i, h := range headers {
		colOf[h] = i + 1
	}

	for rowIdx, cells := range rows {
		rec := store.Record{}
		for i, h := range headers {
			if i < len(cells) {
				rec[h] = cells[i]
			}
		}
		if !match(rec) {
			continue
		}
		for k, v := range patch {
			col, ok := colOf[k]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col, rowIdx+2)
			if err != nil {
				return false, err
			}
			if err := s.f.SetCellValue(table, cell, v); err != nil {
				return false, fmt.Errorf("failed to patch %s: %w", table, err)
			}
		}
		return true, s.save()
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

func (s *Store) readSheet(table string) (headers []string, rows [][]string, err error) {
	all, err := s.f.GetRows(table)
	if err != nil {
		return nil, nil, fmt.Errorf("table %s does not exist: %w", table, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("table %s has no header row", table)
	}
	return all[0], all[1:], nil
}

func (s *Store) save() error {
	if err := s.f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

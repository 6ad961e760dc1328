// Package sqlstore backs the TabularStore with MySQL. Every logical table is
// a partition of one generic sheet_rows table: the autoincrement id preserves
// insertion order and the record itself is stored as JSON, which keeps the
// store schema-free the same way the workbook store is.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vks.la/patrol/store"
)

const lockName = "patrol_store_write"

type sheetRow struct {
	ID        uint   `gorm:"primaryKey"`
	Sheet     string `gorm:"size:64;index;not null"`
	Data      string `gorm:"type:json;not null"`
	CreatedAt time.Time
}

func (sheetRow) TableName() string {
	return "sheet_rows"
}

type Store struct {
	db *gorm.DB

	mu      sync.Mutex
	headers map[string][]string

	LockWait time.Duration
	Now      func() time.Time
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql store: %w", err)
	}
	if err := db.AutoMigrate(&sheetRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sheet_rows: %w", err)
	}
	return &Store{
		db:       db,
		headers:  make(map[string][]string),
		LockWait: 10 * time.Second,
		Now:      time.Now,
	}, nil
}

// EnsureTable only registers the header set; rows carry their own keys.
func (s *Store) EnsureTable(table string, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.headers[table]; !ok {
		s.headers[table] = append([]string(nil), headers...)
	}
	return nil
}

func (s *Store) headersFor(table string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[table]
}

func (s *Store) ReadAll(ctx context.Context, table string) ([]store.Record, error) {
	if s.headersFor(table) == nil {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	var rows []sheetRow
	if err := s.db.WithContext(ctx).
		Where("sheet = ?", table).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	out := make([]store.Record, 0, len(rows))
	for _, r := range rows {
		rec := store.Record{}
		if err := json.Unmarshal([]byte(r.Data), &rec); err != nil {
			// Unreadable rows are skipped, not fatal.
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, rec store.Record) error {
	headers := s.headersFor(table)
	if headers == nil {
		return fmt.Errorf("table %s does not exist", table)
	}
	rec = rec.Clone()
	store.StampTimestamp(rec, headers, s.Now())

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode row for %s: %w", table, err)
	}
	row := sheetRow{Sheet: table, Data: string(data)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append to %s: %w", table, err)
	}
	return nil
}

func (s *Store) FindAndUpdateRow(ctx context.Context, table string, match func(store.Record) bool, patch store.Record) (bool, error) {
	if s.headersFor(table) == nil {
		return false, fmt.Errorf("table %s does not exist", table)
	}
	var rows []sheetRow
	if err := s.db.WithContext(ctx).
		Where("sheet = ?", table).
		Order("id").
		Find(&rows).Error; err != nil {
		return false, fmt.Errorf("failed to read %s: %w", table, err)
	}

	for _, r := range rows {
		rec := store.Record{}
		if err := json.Unmarshal([]byte(r.Data), &rec); err != nil {
			continue
		}
		if !match(rec) {
			continue
		}
		for k, v := range patch {
			rec[k] = v
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return false, err
		}
		if err := s.db.WithContext(ctx).
			Model(&sheetRow{}).
			Where("id = ?", r.ID).
			Update("data", string(data)).Error; err != nil {
			return false, fmt.Errorf("failed to patch %s: %w", table, err)
		}
		return true, nil
	}
	return false, nil
}

// WithLock serializes writers across processes through a MySQL named lock.
// GET_LOCK is connection-scoped, so acquire and release must run on the
// same connection.
func (s *Store) WithLock(ctx context.Context, fn func() error) error {
	return s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		var got int
		if err := tx.Raw("SELECT GET_LOCK(?, ?)", lockName, int(s.LockWait.Seconds())).Scan(&got).Error; err != nil {
			return fmt.Errorf("failed to acquire store lock: %w", err)
		}
		if got != 1 {
			return store.ErrBusy
		}
		defer tx.Exec("SELECT RELEASE_LOCK(?)", lockName)
		return fn()
	})
}

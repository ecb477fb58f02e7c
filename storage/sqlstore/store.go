// Package sqlstore provides a storage.Database backed by a SQL database through
// gorm. SQLite (pure Go) and PostgreSQL are supported.
package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"activityrewards/storage"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrDSNRequired is returned when no data source name is configured.
var ErrDSNRequired = errors.New("sqlstore: dsn must be configured")

type record struct {
	Key   []byte `gorm:"column:record_key;primaryKey"`
	Value []byte `gorm:"column:record_value;not null"`
}

func (record) TableName() string { return "ledger_kv" }

// Store implements storage.Database on top of a single key/value table.
type Store struct {
	db *gorm.DB
}

var _ storage.Database = (*Store)(nil)

// Open connects to the database and applies the schema.
func Open(driver, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil database")
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Put(key []byte, value []byte) error {
	rec := record{Key: append([]byte(nil), key...), Value: append([]byte{}, value...)}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"record_value"}),
	}).Create(&rec).Error
}

func (s *Store) Get(key []byte) ([]byte, error) {
	var rec record
	err := s.db.Where("record_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

func (s *Store) Has(key []byte) (bool, error) {
	var count int64
	if err := s.db.Model(&record{}).Where("record_key = ?", key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Delete(key []byte) error {
	return s.db.Where("record_key = ?", key).Delete(&record{}).Error
}

// Iterate uses a half-open key range so the scan stays byte-ordered on every
// backend.
func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	query := s.db.Model(&record{}).Order("record_key asc")
	if len(prefix) > 0 {
		query = query.Where("record_key >= ?", prefix)
		if limit := prefixEnd(prefix); limit != nil {
			query = query.Where("record_key < ?", limit)
		}
	}
	var records []record
	if err := query.Find(&records).Error; err != nil {
		return err
	}
	for _, rec := range records {
		if err := fn(rec.Key, rec.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// prefixEnd returns the smallest key greater than every key with the prefix,
// or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// Package localstate is the vault agent's durable client-side storage: the
// verification resume slot, the session slot, local preferences and the
// local cache. It lives in one SQLite file next to the agent.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	slotVerification = "verification"
	slotSession      = "session"
	prefPrefix       = "pref:"
	prefBiometric    = prefPrefix + "biometric"
)

// slot is one keyed JSON value.
type slot struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (slot) TableName() string { return "local_slots" }

type cacheEntry struct {
	Name      string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (cacheEntry) TableName() string { return "local_cache" }

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite file at path.
func Open(path string, now func() time.Time) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local state %s: %w", path, err)
	}
	return New(db, now)
}

// New migrates db and wraps it.
func New(db *gorm.DB, now func() time.Time) (*Store, error) {
	if err := db.AutoMigrate(&slot{}, &cacheEntry{}); err != nil {
		return nil, fmt.Errorf("migrate local state: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) put(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	row := slot{Name: key, Value: string(raw), UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *Store) get(ctx context.Context, key string, v interface{}) error {
	var row slot
	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("local slot %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(row.Value), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) del(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("name = ?", key).Delete(&slot{}).Error
}

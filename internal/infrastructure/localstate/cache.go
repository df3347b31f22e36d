package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nextwallet-vault/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PutCache stores v as JSON under key in the local cache.
func (s *Store) PutCache(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&cacheEntry{Name: key, Value: string(raw), UpdatedAt: s.now().UTC()}).Error
}

func (s *Store) GetCache(ctx context.Context, key string, v interface{}) error {
	var row cacheEntry
	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cache %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(row.Value), v)
}

// Purge wipes the local cache, every preference and the verification slot in
// one transaction. The session slot survives.
func (s *Store) Purge(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&cacheEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("name LIKE ?", prefPrefix+"%").Delete(&slot{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", slotVerification).Delete(&slot{}).Error
	})
}

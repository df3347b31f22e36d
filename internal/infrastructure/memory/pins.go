package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nextwallet-vault/internal/domain"
)

type PinRepo struct {
	mu   sync.RWMutex
	pins map[string]domain.PinRecord
}

func NewPinRepo() *PinRepo {
	return &PinRepo{pins: make(map[string]domain.PinRecord)}
}

func (r *PinRepo) Get(_ context.Context, userID string) (*domain.PinRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pins[userID]
	if !ok {
		return nil, fmt.Errorf("pin for %s: %w", userID, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *PinRepo) Upsert(_ context.Context, rec *domain.PinRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := *rec
	if prev, ok := r.pins[rec.UserID]; ok {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
	}
	r.pins[rec.UserID] = next
	return nil
}

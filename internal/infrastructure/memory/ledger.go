// Package memory holds process-local record stores for development and tests.
// Nothing here survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nextwallet-vault/internal/domain"
)

type LedgerRepo struct {
	mu      sync.RWMutex
	entries map[string]*domain.OTPEntry
	byUser  map[string][]string // user_id -> entry ids in insert order
}

func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{
		entries: make(map[string]*domain.OTPEntry),
		byUser:  make(map[string][]string),
	}
}

func (r *LedgerRepo) Insert(_ context.Context, e *domain.OTPEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; ok {
		return fmt.Errorf("otp entry %s: %w", e.ID, domain.ErrConflict)
	}
	cp := *e
	r.entries[e.ID] = &cp
	r.byUser[e.UserID] = append(r.byUser[e.UserID], e.ID)
	return nil
}

func (r *LedgerRepo) LatestPending(_ context.Context, userID string, now time.Time) (*domain.OTPEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest(userID, func(e *domain.OTPEntry) bool { return e.Pending(now) })
}

func (r *LedgerRepo) Latest(_ context.Context, userID string) (*domain.OTPEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest(userID, func(*domain.OTPEntry) bool { return true })
}

func (r *LedgerRepo) MarkVerified(_ context.Context, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryID]
	if !ok || e.Verified {
		return fmt.Errorf("otp entry %s: %w", entryID, domain.ErrConflict)
	}
	e.Verified = true
	return nil
}

// latest walks newest-first by IssuedAt; ties keep the later insert.
func (r *LedgerRepo) latest(userID string, keep func(*domain.OTPEntry) bool) (*domain.OTPEntry, error) {
	var best *domain.OTPEntry
	for _, id := range r.byUser[userID] {
		e := r.entries[id]
		if !keep(e) {
			continue
		}
		if best == nil || !e.IssuedAt.Before(best.IssuedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, fmt.Errorf("otp entry: %w", domain.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nextwallet-vault/internal/domain"
)

type WalletRepo struct {
	mu      sync.Mutex
	wallets map[string]domain.Wallet
}

func NewWalletRepo() *WalletRepo {
	return &WalletRepo{wallets: make(map[string]domain.Wallet)}
}

func (r *WalletRepo) Put(_ context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.WalletID]; ok {
		return fmt.Errorf("wallet %s exists: %w", w.WalletID, domain.ErrConflict)
	}
	r.wallets[w.WalletID] = *w
	return nil
}

func (r *WalletRepo) ListByUser(_ context.Context, userID string) []domain.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Wallet
	for _, w := range r.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out
}

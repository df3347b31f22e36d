// Package vault holds the sensitive local actions. Each one spends a step-up
// token for its own action before it touches anything.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/pkg/id"
)

type tokenSpender interface {
	Consume(token, userID string, action domain.Action) error
}

type walletStore interface {
	Put(ctx context.Context, w *domain.Wallet) error
}

type localData interface {
	PutCache(ctx context.Context, key string, v interface{}) error
	Purge(ctx context.Context) error
}

type Service interface {
	CreateWallet(ctx context.Context, userID string, req domain.CreateWalletRequest) (*domain.Wallet, error)
	WipeLocalData(ctx context.Context, userID, token string) error
}

type ServiceDeps struct {
	StepUp     tokenSpender
	WalletRepo walletStore
	LocalState localData
	Now        func() time.Time
}

type service struct {
	stepUp  tokenSpender
	wallets walletStore
	local   localData
	now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		stepUp:  deps.StepUp,
		wallets: deps.WalletRepo,
		local:   deps.LocalState,
		now:     deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func cacheKey(walletID string) string { return "wallet:" + walletID }

func (s *service) CreateWallet(ctx context.Context, userID string, req domain.CreateWalletRequest) (*domain.Wallet, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("wallet name: %w", domain.ErrBadRequest)
	}
	if err := s.stepUp.Consume(req.Token, userID, domain.ActionCreateWallet); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	w := &domain.Wallet{
		WalletID:  id.NewAt(now),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
	}
	if err := s.wallets.Put(ctx, w); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, domain.Network("wallet put", err)
	}
	if err := s.local.PutCache(ctx, cacheKey(w.WalletID), w); err != nil {
		slog.Warn("failed to cache wallet locally", "wallet_id", w.WalletID, "err", err)
	}
	slog.Info("wallet created", "user_id", userID, "wallet_id", w.WalletID)
	return w, nil
}

// WipeLocalData purges the local cache, preferences and verification hint.
// The session slot is kept.
func (s *service) WipeLocalData(ctx context.Context, userID, token string) error {
	if err := s.stepUp.Consume(token, userID, domain.ActionWipeLocalData); err != nil {
		return err
	}
	if err := s.local.Purge(ctx); err != nil {
		return fmt.Errorf("purge local data: %w", err)
	}
	slog.Info("local data wiped", "user_id", userID)
	return nil
}

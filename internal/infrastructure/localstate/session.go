package localstate

import (
	"context"
	"errors"
	"strconv"

	"github.com/nextwallet-vault/internal/domain"
)

func (s *Store) SaveSession(ctx context.Context, ref string) error {
	return s.put(ctx, slotSession, ref)
}

// LoadSession returns the persisted session reference, or an error wrapping
// domain.ErrNotFound when signed out.
func (s *Store) LoadSession(ctx context.Context) (string, error) {
	var ref string
	if err := s.get(ctx, slotSession, &ref); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.del(ctx, slotSession)
}

// BiometricEnabled defaults to false when the preference was never set.
func (s *Store) BiometricEnabled(ctx context.Context) (bool, error) {
	var raw string
	err := s.get(ctx, prefBiometric, &raw)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(raw)
}

func (s *Store) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	return s.put(ctx, prefBiometric, strconv.FormatBool(enabled))
}

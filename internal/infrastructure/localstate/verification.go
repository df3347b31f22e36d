package localstate

import (
	"context"
	"errors"

	"github.com/nextwallet-vault/internal/domain"
)

// WriteVerification overwrites the resume slot with {email, sessionRef,
// issued_at = now}.
func (s *Store) WriteVerification(ctx context.Context, email, sessionRef string) error {
	return s.put(ctx, slotVerification, domain.VerificationState{
		Email:            email,
		SessionReference: sessionRef,
		IssuedAt:         s.now().UTC(),
	})
}

// WritePendingSecret is WriteVerification plus an authenticator secret that
// has been generated but not yet confirmed.
func (s *Store) WritePendingSecret(ctx context.Context, email, sessionRef, secret string) error {
	return s.put(ctx, slotVerification, domain.VerificationState{
		Email:            email,
		SessionReference: sessionRef,
		IssuedAt:         s.now().UTC(),
		TOTPSecret:       secret,
	})
}

// ReadVerification returns the slot or an error wrapping domain.ErrNotFound.
func (s *Store) ReadVerification(ctx context.Context) (*domain.VerificationState, error) {
	var st domain.VerificationState
	if err := s.get(ctx, slotVerification, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// VerificationValid reports whether a record is present and younger than the
// verification window. It never clears anything.
func (s *Store) VerificationValid(ctx context.Context) (bool, error) {
	st, err := s.ReadVerification(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.ValidAt(s.now()), nil
}

func (s *Store) ClearVerification(ctx context.Context) error {
	return s.del(ctx, slotVerification)
}

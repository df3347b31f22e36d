// Package stepup is the secondary PIN gate in front of sensitive local
// actions, with an optional biometric shortcut.
package stepup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/pkg/id"
	"github.com/nextwallet-vault/internal/pkg/otpcode"
)

type pinStore interface {
	Get(ctx context.Context, userID string) (*domain.PinRecord, error)
	Upsert(ctx context.Context, rec *domain.PinRecord) error
}

type attemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

type preferences interface {
	BiometricEnabled(ctx context.Context) (bool, error)
}

// PlatformAuthenticator reports whether the device can run a local user
// verification. Availability says nothing about who is holding the device.
type PlatformAuthenticator interface {
	Available(ctx context.Context) bool
}

// StaticPlatform answers from configuration.
type StaticPlatform bool

func (p StaticPlatform) Available(context.Context) bool { return bool(p) }

type Service interface {
	PinStatus(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, userID string, req domain.CreatePinRequest) (*domain.StepUpToken, error)
	Verify(ctx context.Context, userID string, req domain.VerifyPinRequest) (*domain.StepUpToken, error)
	// Biometric is a convenience gate equivalent to "the device is unlocked".
	// It is not a second factor.
	Biometric(ctx context.Context, userID string, action domain.Action) (*domain.StepUpToken, error)
	Rotate(ctx context.Context, userID string, req domain.RotatePinRequest) error
	Consume(token, userID string, action domain.Action) error
	RevokeUser(userID string)
}

type ServiceDeps struct {
	PinRepo     pinStore
	Hasher      Hasher
	Attempts    attemptCounter
	MaxAttempts int // 0 disables lockout
	Lockout     time.Duration
	Preferences preferences
	Platform    PlatformAuthenticator
	Tokens      *Registry
	Now         func() time.Time
}

type service struct {
	pins        pinStore
	hasher      Hasher
	attempts    attemptCounter
	maxAttempts int
	lockout     time.Duration
	prefs       preferences
	platform    PlatformAuthenticator
	tokens      *Registry
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		pins:        deps.PinRepo,
		hasher:      deps.Hasher,
		attempts:    deps.Attempts,
		maxAttempts: deps.MaxAttempts,
		lockout:     deps.Lockout,
		prefs:       deps.Preferences,
		platform:    deps.Platform,
		tokens:      deps.Tokens,
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.hasher == nil {
		s.hasher = Argon2idHasher{}
	}
	if s.platform == nil {
		s.platform = StaticPlatform(false)
	}
	if s.tokens == nil {
		s.tokens = NewRegistry(2*time.Minute, s.now)
	}
	return s
}

func attemptsKey(userID string) string { return "pin:attempts:" + userID }

// checkFormat applies the length floor first so short input always reports
// TooShort, whatever else is wrong with it.
func checkFormat(pin string) error {
	if len(pin) < domain.PinMinLength {
		return domain.ErrPinTooShort
	}
	if len(pin) > domain.PinMaxLength || !otpcode.Digits(pin) {
		return domain.ErrPinInvalidFormat
	}
	return nil
}

func checkNewPin(pin, confirm string) error {
	if err := checkFormat(pin); err != nil {
		return err
	}
	if pin != confirm {
		return domain.ErrPinMismatch
	}
	return nil
}

func checkAction(a domain.Action) error {
	if !a.Valid() {
		return fmt.Errorf("unknown action %q: %w", a, domain.ErrBadRequest)
	}
	return nil
}

func (s *service) PinStatus(ctx context.Context, userID string) (bool, error) {
	_, err := s.pins.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.Network("load pin", err)
	}
	return true, nil
}

// Create sets the first PIN. Repeating a create with the PIN already stored
// succeeds like a verify, under the same attempt bound; a different PIN is a
// conflict and has to go through Rotate.
func (s *service) Create(ctx context.Context, userID string, req domain.CreatePinRequest) (*domain.StepUpToken, error) {
	if err := checkAction(req.Action); err != nil {
		return nil, err
	}
	if err := checkNewPin(req.Pin, req.Confirm); err != nil {
		return nil, err
	}
	set, err := s.PinStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if set {
		tok, err := s.Verify(ctx, userID, domain.VerifyPinRequest{Pin: req.Pin, Action: req.Action})
		if errors.Is(err, domain.ErrPinIncorrect) {
			return nil, fmt.Errorf("pin already set: %w", domain.ErrConflict)
		}
		return tok, err
	}
	if err := s.store(ctx, userID, req.Pin); err != nil {
		return nil, err
	}
	return s.tokens.Issue(userID, req.Action)
}

func (s *service) Verify(ctx context.Context, userID string, req domain.VerifyPinRequest) (*domain.StepUpToken, error) {
	if err := checkAction(req.Action); err != nil {
		return nil, err
	}
	if err := checkFormat(req.Pin); err != nil {
		return nil, err
	}
	rec, err := s.pins.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrPinNotSet
	}
	if err != nil {
		return nil, domain.Network("load pin", err)
	}
	if err := s.takeAttempt(ctx, userID); err != nil {
		return nil, err
	}
	ok, err := s.hasher.Compare(rec.Pin, req.Pin)
	if err != nil {
		return nil, fmt.Errorf("compare pin: %w", err)
	}
	if !ok {
		return nil, domain.ErrPinIncorrect
	}
	if s.maxAttempts > 0 {
		if err := s.attempts.Reset(ctx, attemptsKey(userID)); err != nil {
			slog.Warn("failed to reset pin attempts", "user_id", userID, "err", err)
		}
	}
	return s.tokens.Issue(userID, req.Action)
}

// takeAttempt counts the attempt before the comparison runs, so concurrent
// verifies cannot exceed the bound. A success resets the count.
func (s *service) takeAttempt(ctx context.Context, userID string) error {
	if s.maxAttempts <= 0 {
		return nil
	}
	n, err := s.attempts.Incr(ctx, attemptsKey(userID), s.lockout)
	if err != nil {
		return domain.Network("pin attempts", err)
	}
	if n > s.maxAttempts {
		if n == s.maxAttempts+1 {
			slog.Warn("pin locked", "user_id", userID, "lockout", s.lockout)
		}
		return domain.ErrPinLocked
	}
	return nil
}

func (s *service) Biometric(ctx context.Context, userID string, action domain.Action) (*domain.StepUpToken, error) {
	if err := checkAction(action); err != nil {
		return nil, err
	}
	enabled, err := s.prefs.BiometricEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("read biometric preference: %w", err)
	}
	if !enabled || !s.platform.Available(ctx) {
		return nil, domain.ErrPinBiometricUnavailable
	}
	return s.tokens.Issue(userID, action)
}

// Rotate replaces the PIN. The new PIN is checked before the token is spent,
// so a typo does not cost the user a fresh step-up.
func (s *service) Rotate(ctx context.Context, userID string, req domain.RotatePinRequest) error {
	if err := checkNewPin(req.Pin, req.Confirm); err != nil {
		return err
	}
	if err := s.tokens.Consume(req.Token, userID, domain.ActionRotatePIN); err != nil {
		return err
	}
	return s.store(ctx, userID, req.Pin)
}

func (s *service) store(ctx context.Context, userID, pin string) error {
	hashed, err := s.hasher.Hash(pin)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	now := s.now().UTC()
	rec := &domain.PinRecord{
		ID:        id.NewAt(now),
		UserID:    userID,
		Pin:       hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.pins.Upsert(ctx, rec); err != nil {
		return domain.Network("store pin", err)
	}
	return nil
}

func (s *service) Consume(token, userID string, action domain.Action) error {
	return s.tokens.Consume(token, userID, action)
}

func (s *service) RevokeUser(userID string) {
	s.tokens.RevokeUser(userID)
}

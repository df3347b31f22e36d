// Package otp is the verification side of sign-in: the code gate, the
// verification screen state and its countdown.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/pkg/otpcode"
)

type ledgerStore interface {
	LatestPending(ctx context.Context, userID string, now time.Time) (*domain.OTPEntry, error)
	MarkVerified(ctx context.Context, entryID string) error
}

type secretSource interface {
	TOTPSecret(ctx context.Context, userID string) (string, error)
}

type verificationSlot interface {
	ReadVerification(ctx context.Context) (*domain.VerificationState, error)
	ClearVerification(ctx context.Context) error
}

type attemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

type notifier interface {
	VerificationOutcome(ev domain.VerificationEvent)
}

// ScreenState is what the verification screen renders.
type ScreenState struct {
	Email     string        `json:"email"`
	ExpiresAt time.Time     `json:"expires_at"`
	Remaining time.Duration `json:"-"`
}

type Service interface {
	// Verify checks code against the newest pending ledger entry for sess and
	// flips it to verified on a match.
	Verify(ctx context.Context, sess *domain.Session, req domain.VerifyRequest) error
	Screen(ctx context.Context) (*ScreenState, error)
	Countdown(ctx context.Context) (*Countdown, error)
	// Expire clears the hint cd was started for once its window has run out.
	// It reports false and leaves the slot alone when that hint has since
	// been replaced or renewed.
	Expire(ctx context.Context, cd *Countdown) (bool, error)
}

type ServiceDeps struct {
	LedgerRepo   ledgerStore
	Identity     secretSource
	LocalState   verificationSlot
	Attempts     attemptCounter
	MaxAttempts  int // 0 disables the bound
	Notifier     notifier
	Now          func() time.Time
	TickInterval time.Duration
}

type service struct {
	ledger      ledgerStore
	identity    secretSource
	local       verificationSlot
	attempts    attemptCounter
	maxAttempts int
	notifier    notifier
	now         func() time.Time
	tick        time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		ledger:      deps.LedgerRepo,
		identity:    deps.Identity,
		local:       deps.LocalState,
		attempts:    deps.Attempts,
		maxAttempts: deps.MaxAttempts,
		notifier:    deps.Notifier,
		now:         deps.Now,
		tick:        deps.TickInterval,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tick <= 0 {
		s.tick = time.Second
	}
	return s
}

func attemptsKey(entryID string) string { return "otp:attempts:" + entryID }

func (s *service) Verify(ctx context.Context, sess *domain.Session, req domain.VerifyRequest) error {
	if !otpcode.Valid(req.Code) {
		return domain.ErrOTPBadFormat
	}
	method := req.Method
	if method == "" {
		method = domain.MethodEmail
	}
	if method != domain.MethodEmail && method != domain.MethodTOTP {
		return fmt.Errorf("unknown method %q: %w", method, domain.ErrBadRequest)
	}
	if sess == nil {
		return domain.ErrStateMissing
	}
	uid := sess.Identity.UserID
	now := s.now()

	entry, err := s.ledger.LatestPending(ctx, uid, now)
	if errors.Is(err, domain.ErrNotFound) {
		s.notify(sess, req.Code, method, false)
		return domain.ErrOTPNoPendingCode
	}
	if err != nil {
		return domain.Network("ledger lookup", err)
	}

	// Each submission takes a slot before comparing, so concurrent
	// submissions cannot get past the bound.
	if s.maxAttempts > 0 {
		n, err := s.attempts.Incr(ctx, attemptsKey(entry.ID), domain.VerificationWindow)
		if err != nil {
			return domain.Network("otp attempts", err)
		}
		if n > s.maxAttempts {
			s.notify(sess, req.Code, method, false)
			return domain.ErrOTPTooManyAttempts
		}
	}

	match, err := s.matches(ctx, entry, uid, method, req.Code, now)
	if err != nil {
		return err
	}
	if !match {
		s.notify(sess, req.Code, method, false)
		return domain.ErrOTPMismatch
	}

	err = s.ledger.MarkVerified(ctx, entry.ID)
	if errors.Is(err, domain.ErrConflict) {
		// Another client verified this entry first.
		s.notify(sess, req.Code, method, false)
		return domain.ErrOTPNoPendingCode
	}
	if err != nil {
		return domain.Network("ledger update", err)
	}

	if s.maxAttempts > 0 {
		if err := s.attempts.Reset(ctx, attemptsKey(entry.ID)); err != nil {
			slog.Warn("failed to reset otp attempts", "user_id", uid, "err", err)
		}
	}
	if err := s.local.ClearVerification(ctx); err != nil {
		slog.Warn("failed to clear verification state", "user_id", uid, "err", err)
	}
	s.notify(sess, req.Code, method, true)
	return nil
}

func (s *service) matches(ctx context.Context, entry *domain.OTPEntry, uid, method, code string, now time.Time) (bool, error) {
	if method == domain.MethodEmail {
		return subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) == 1, nil
	}
	secret, err := s.identity.TOTPSecret(ctx, uid)
	if err != nil {
		return false, domain.Network("totp secret", err)
	}
	if secret == "" {
		return false, nil
	}
	return ValidateTOTP(code, secret, now), nil
}

// ValidateTOTP checks an authenticator-app code at now, allowing one period of
// drift either way.
func ValidateTOTP(code, secret string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now.UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    pqotp.DigitsSix,
		Algorithm: pqotp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *service) notify(sess *domain.Session, code, method string, success bool) {
	if s.notifier == nil {
		return
	}
	s.notifier.VerificationOutcome(domain.VerificationEvent{
		Email:      sess.Identity.Email,
		UserID:     sess.Identity.UserID,
		Success:    success,
		OTPEntered: code,
		AuthMethod: method,
		Action:     "verification",
		Timestamp:  s.now().UTC(),
	})
}

func (s *service) Screen(ctx context.Context) (*ScreenState, error) {
	st, err := s.validHint(ctx)
	if err != nil {
		return nil, err
	}
	return &ScreenState{
		Email:     st.Email,
		ExpiresAt: st.ExpiresAt(),
		Remaining: st.ExpiresAt().Sub(s.now()),
	}, nil
}

// validHint reads the hint, clearing it when stale.
func (s *service) validHint(ctx context.Context) (*domain.VerificationState, error) {
	st, err := s.local.ReadVerification(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrStateMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read verification state: %w", err)
	}
	if !st.ValidAt(s.now()) {
		if err := s.local.ClearVerification(ctx); err != nil {
			slog.Warn("failed to clear stale verification state", "err", err)
		}
		return nil, domain.ErrStateExpired
	}
	return st, nil
}

func (s *service) Countdown(ctx context.Context) (*Countdown, error) {
	st, err := s.validHint(ctx)
	if err != nil {
		return nil, err
	}
	cd := NewCountdown(st.ExpiresAt(), s.now, s.tick)
	cd.sessionRef, cd.issuedAt = st.SessionReference, st.IssuedAt
	return cd, nil
}

func (s *service) Expire(ctx context.Context, cd *Countdown) (bool, error) {
	st, err := s.local.ReadVerification(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read verification state: %w", err)
	}
	if !cd.startedFor(st) || st.ValidAt(s.now()) {
		return false, nil
	}
	if err := s.local.ClearVerification(ctx); err != nil {
		return false, err
	}
	return true, nil
}

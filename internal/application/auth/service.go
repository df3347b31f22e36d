// Package auth is the session authenticator: password sign-in that mints a
// fresh one-time code, sign-out, and authenticator-app enrollment.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp/totp"

	otpapp "github.com/nextwallet-vault/internal/application/otp"
	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/pkg/id"
	"github.com/nextwallet-vault/internal/pkg/otpcode"
)

type identityStore interface {
	VerifyPassword(ctx context.Context, email, password string) (*domain.Session, error)
	CurrentSession(ctx context.Context) (*domain.Session, error)
	InvalidateSession(ctx context.Context, ref string) error
	EnableTOTP(ctx context.Context, userID, secret string) error
}

type ledgerStore interface {
	Insert(ctx context.Context, e *domain.OTPEntry) error
}

type verificationSlot interface {
	WriteVerification(ctx context.Context, email, sessionRef string) error
	WritePendingSecret(ctx context.Context, email, sessionRef, secret string) error
	ReadVerification(ctx context.Context) (*domain.VerificationState, error)
	ClearVerification(ctx context.Context) error
}

type codeSender interface {
	SendCode(ctx context.Context, to, code string) error
}

type tokenRevoker interface {
	RevokeUser(userID string)
}

type SignInResult struct {
	Identity  domain.Identity `json:"identity"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

type Service interface {
	// SignIn returns once the ledger entry and the local hint are both
	// written. It never navigates.
	SignIn(ctx context.Context, req domain.SignInRequest) (*SignInResult, error)
	SignOut(ctx context.Context) error
	EnrollTOTP(ctx context.Context, sess *domain.Session) (*Enrollment, error)
	ConfirmTOTP(ctx context.Context, sess *domain.Session, code string) error
}

type ServiceDeps struct {
	Identity   identityStore
	LedgerRepo ledgerStore
	LocalState verificationSlot
	Mailer     codeSender
	StepUp     tokenRevoker
	TOTPIssuer string
	Now        func() time.Time
}

type service struct {
	identity identityStore
	ledger   ledgerStore
	local    verificationSlot
	mailer   codeSender
	stepUp   tokenRevoker
	issuer   string
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		identity: deps.Identity,
		ledger:   deps.LedgerRepo,
		local:    deps.LocalState,
		mailer:   deps.Mailer,
		stepUp:   deps.StepUp,
		issuer:   deps.TOTPIssuer,
		now:      deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.issuer == "" {
		s.issuer = "NextWallet"
	}
	return s
}

func (s *service) SignIn(ctx context.Context, req domain.SignInRequest) (*SignInResult, error) {
	sess, err := s.identity.VerifyPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	code, err := otpcode.New()
	if err != nil {
		return nil, err
	}
	now := domain.LedgerTime(s.now())
	entry := &domain.OTPEntry{
		ID:        id.NewAt(now),
		UserID:    sess.Identity.UserID,
		UserEmail: sess.Identity.Email,
		SessionID: sess.ID,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(domain.VerificationWindow),
		Verified:  false,
	}
	// The ledger write must land before the local hint exists.
	if err := s.ledger.Insert(ctx, entry); err != nil {
		return nil, domain.Network("ledger insert", err)
	}
	if err := s.local.WriteVerification(ctx, sess.Identity.Email, sess.Reference); err != nil {
		return nil, fmt.Errorf("write verification state: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendCode(ctx, sess.Identity.Email, code); err != nil {
			slog.Warn("failed to deliver verification code", "user_id", sess.Identity.UserID, "err", err)
		}
	}
	slog.Info("verification code issued", "user_id", sess.Identity.UserID, "entry_id", entry.ID)
	return &SignInResult{Identity: sess.Identity, ExpiresAt: entry.ExpiresAt}, nil
}

// SignOut is idempotent: with no session it only clears the local hint.
func (s *service) SignOut(ctx context.Context) error {
	sess, err := s.identity.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		if s.stepUp != nil {
			s.stepUp.RevokeUser(sess.Identity.UserID)
		}
		if err := s.identity.InvalidateSession(ctx, sess.Reference); err != nil {
			return err
		}
	}
	if err := s.local.ClearVerification(ctx); err != nil {
		return fmt.Errorf("clear verification state: %w", err)
	}
	return nil
}

// EnrollTOTP generates an authenticator secret and parks it in the local
// verification slot until ConfirmTOTP proves the user can produce codes.
func (s *service) EnrollTOTP(ctx context.Context, sess *domain.Session) (*Enrollment, error) {
	if sess == nil {
		return nil, domain.ErrStateMissing
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: sess.Identity.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	if err := s.local.WritePendingSecret(ctx, sess.Identity.Email, sess.Reference, key.Secret()); err != nil {
		return nil, fmt.Errorf("write pending secret: %w", err)
	}
	return &Enrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

func (s *service) ConfirmTOTP(ctx context.Context, sess *domain.Session, code string) error {
	if !otpcode.Valid(code) {
		return domain.ErrOTPBadFormat
	}
	if sess == nil {
		return domain.ErrStateMissing
	}
	st, err := s.local.ReadVerification(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrStateMissing
	}
	if err != nil {
		return fmt.Errorf("read verification state: %w", err)
	}
	if st.TOTPSecret == "" || st.SessionReference != sess.Reference {
		return domain.ErrStateMissing
	}
	now := s.now()
	if !st.ValidAt(now) {
		if err := s.local.ClearVerification(ctx); err != nil {
			slog.Warn("failed to clear stale enrollment", "err", err)
		}
		return domain.ErrStateExpired
	}
	if !otpapp.ValidateTOTP(code, st.TOTPSecret, now) {
		return domain.ErrOTPMismatch
	}
	if err := s.identity.EnableTOTP(ctx, sess.Identity.UserID, st.TOTPSecret); err != nil {
		return err
	}
	return s.local.ClearVerification(ctx)
}

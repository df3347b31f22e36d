// Package session is the identity store adapter: password check, session
// reference issuance, the locally persisted session slot and TOTP secrets.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	jwtinfra "github.com/nextwallet-vault/internal/infrastructure/jwt"
	"github.com/nextwallet-vault/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetTOTPSecret(ctx context.Context, userID, secret string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.SessionRecord) error
	Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	Disable(ctx context.Context, sessionID string) error
}

type jwtSigner interface {
	Sign(id domain.Identity, sessionID string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

// sessionSlot is where the client keeps its one session reference.
type sessionSlot interface {
	SaveSession(ctx context.Context, ref string) error
	LoadSession(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
}

type Service interface {
	VerifyPassword(ctx context.Context, email, password string) (*domain.Session, error)
	// CurrentSession returns nil without error when signed out.
	CurrentSession(ctx context.Context) (*domain.Session, error)
	InvalidateSession(ctx context.Context, ref string) error
	TOTPSecret(ctx context.Context, userID string) (string, error)
	EnableTOTP(ctx context.Context, userID, secret string) error
}

type ServiceDeps struct {
	UserRepo    userStore
	SessionRepo sessionStore
	JWTProvider jwtSigner
	LocalState  sessionSlot
	Now         func() time.Time
}

type service struct {
	userRepo    userStore
	sessionRepo sessionStore
	jwtProvider jwtSigner
	local       sessionSlot
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		userRepo:    deps.UserRepo,
		sessionRepo: deps.SessionRepo,
		jwtProvider: deps.JWTProvider,
		local:       deps.LocalState,
		now:         now,
	}
}

// VerifyPassword checks credentials and, on success, opens a session row and
// persists its reference locally. Unknown, disabled and wrong-password
// accounts are indistinguishable.
func (s *service) VerifyPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.Network("lookup user", err)
	}
	if !u.Enable {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	rec := &domain.SessionRecord{
		SessionID: id.NewAt(now),
		UserID:    u.UserID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Put(ctx, rec); err != nil {
		return nil, domain.Network("open session", err)
	}
	ident := domain.Identity{UserID: u.UserID, Email: u.Email}
	ref, err := s.jwtProvider.Sign(ident, rec.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign session reference: %w", err)
	}
	if err := s.local.SaveSession(ctx, ref); err != nil {
		return nil, fmt.Errorf("persist session reference: %w", err)
	}
	return &domain.Session{ID: rec.SessionID, Reference: ref, Identity: ident}, nil
}

func (s *service) CurrentSession(ctx context.Context) (*domain.Session, error) {
	ref, err := s.local.LoadSession(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session reference: %w", err)
	}
	claims, err := s.jwtProvider.Verify(ref)
	if err != nil {
		return nil, s.drop(ctx)
	}
	rec, err := s.sessionRepo.Get(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.drop(ctx)
	}
	if err != nil {
		return nil, domain.Network("load session", err)
	}
	if !rec.Enable || rec.UserID != claims.UserID {
		return nil, s.drop(ctx)
	}
	return &domain.Session{
		ID:        rec.SessionID,
		Reference: ref,
		Identity:  domain.Identity{UserID: claims.UserID, Email: claims.Email},
	}, nil
}

// drop forgets a reference that no longer resolves to a live session.
func (s *service) drop(ctx context.Context) error {
	if err := s.local.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session reference: %w", err)
	}
	return nil
}

func (s *service) InvalidateSession(ctx context.Context, ref string) error {
	if claims, err := s.jwtProvider.Verify(ref); err == nil {
		if err := s.sessionRepo.Disable(ctx, claims.SessionID); err != nil {
			return domain.Network("disable session", err)
		}
	}
	return s.drop(ctx)
}

func (s *service) TOTPSecret(ctx context.Context, userID string) (string, error) {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return "", domain.Network("lookup user", err)
	}
	return u.TOTPSecret, nil
}

func (s *service) EnableTOTP(ctx context.Context, userID, secret string) error {
	if err := s.userRepo.SetTOTPSecret(ctx, userID, secret); err != nil {
		return domain.Network("enable totp", err)
	}
	return nil
}

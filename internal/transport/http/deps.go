package http

import (
	"context"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/transport/http/handler"
)

// LedgerRepository is the minimal interface the router requires from the OTP
// ledger. Dynamo, Postgres and the in-memory store all satisfy it.
type LedgerRepository interface {
	Insert(ctx context.Context, e *domain.OTPEntry) error
	// LatestPending returns the newest unverified entry expiring after now.
	LatestPending(ctx context.Context, userID string, now time.Time) (*domain.OTPEntry, error)
	// Latest returns the newest entry regardless of state.
	Latest(ctx context.Context, userID string) (*domain.OTPEntry, error)
	MarkVerified(ctx context.Context, entryID string) error
}

// PinRepository is the minimal interface the router requires from a PIN store.
type PinRepository interface {
	Get(ctx context.Context, userID string) (*domain.PinRecord, error)
	Upsert(ctx context.Context, rec *domain.PinRecord) error
}

// WalletRepository is the minimal interface the router requires from a wallet store.
type WalletRepository interface {
	Put(ctx context.Context, w *domain.Wallet) error
}

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetTOTPSecret(ctx context.Context, userID, secret string) error
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.SessionRecord) error
	Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	Disable(ctx context.Context, sessionID string) error
}

// AttemptCounter backs the OTP and PIN attempt bounds. Redis and the
// in-process counter both satisfy it.
type AttemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

// CodeSender delivers one-time codes out of band.
type CodeSender interface {
	SendCode(ctx context.Context, to, code string) error
}

// LocalState is the client-local durable store.
type LocalState interface {
	SaveSession(ctx context.Context, ref string) error
	LoadSession(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error

	WriteVerification(ctx context.Context, email, sessionRef string) error
	WritePendingSecret(ctx context.Context, email, sessionRef, secret string) error
	ReadVerification(ctx context.Context) (*domain.VerificationState, error)
	ClearVerification(ctx context.Context) error

	BiometricEnabled(ctx context.Context) (bool, error)
	SetBiometricEnabled(ctx context.Context, enabled bool) error

	PutCache(ctx context.Context, key string, v interface{}) error
	Purge(ctx context.Context) error
}

// Probe is a readiness check against one backend.
type Probe = handler.Probe

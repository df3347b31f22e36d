package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextwallet-vault/internal/domain"
)

const uniqueViolation = "23505"

// LedgerRepo is the Postgres OTP ledger.
type LedgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepo(db *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Insert(ctx context.Context, e *domain.OTPEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO otp_ledger (id, user_id, user_email, session_id, otp, created_at, expires_at, verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.UserEmail, e.SessionID, e.Code, e.IssuedAt, e.ExpiresAt, e.Verified,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("otp entry %s: %w", e.ID, domain.ErrConflict)
	}
	return err
}

// LatestPending returns the newest unverified, unexpired entry for userID.
func (r *LedgerRepo) LatestPending(ctx context.Context, userID string, now time.Time) (*domain.OTPEntry, error) {
	row := r.db.QueryRow(ctx, `
SELECT id, user_id, user_email, session_id, otp, created_at, expires_at, verified
FROM otp_ledger
WHERE user_id=$1 AND verified=FALSE AND expires_at > $2
ORDER BY created_at DESC, id DESC
LIMIT 1
`, userID, now)
	return scanEntry(row)
}

// Latest returns the newest entry for userID regardless of state.
func (r *LedgerRepo) Latest(ctx context.Context, userID string) (*domain.OTPEntry, error) {
	row := r.db.QueryRow(ctx, `
SELECT id, user_id, user_email, session_id, otp, created_at, expires_at, verified
FROM otp_ledger
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT 1
`, userID)
	return scanEntry(row)
}

// MarkVerified flips verified false -> true. A row that is missing or already
// verified yields ErrConflict.
func (r *LedgerRepo) MarkVerified(ctx context.Context, entryID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE otp_ledger SET verified=TRUE WHERE id=$1 AND verified=FALSE`, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("otp entry %s: %w", entryID, domain.ErrConflict)
	}
	return nil
}

func scanEntry(row pgx.Row) (*domain.OTPEntry, error) {
	var e domain.OTPEntry
	err := row.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.SessionID, &e.Code, &e.IssuedAt, &e.ExpiresAt, &e.Verified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("otp entry: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextwallet-vault/internal/domain"
)

type PinRepo struct {
	db *pgxpool.Pool
}

func NewPinRepo(db *pgxpool.Pool) *PinRepo {
	return &PinRepo{db: db}
}

func (r *PinRepo) Get(ctx context.Context, userID string) (*domain.PinRecord, error) {
	var p domain.PinRecord
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, pin, created_at, updated_at FROM pins WHERE user_id=$1`, userID,
	).Scan(&p.ID, &p.UserID, &p.Pin, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pin for %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the PIN for rec.UserID, keeping the original id and created_at
// when one already exists.
func (r *PinRepo) Upsert(ctx context.Context, rec *domain.PinRecord) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO pins (user_id, id, pin, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET pin = EXCLUDED.pin, updated_at = EXCLUDED.updated_at
`, rec.UserID, rec.ID, rec.Pin, rec.CreatedAt, rec.UpdatedAt)
	return err
}

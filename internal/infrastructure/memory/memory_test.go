package memory

import (
	"context"
	"testing"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(id string, issued time.Time, verified bool) *domain.OTPEntry {
	return &domain.OTPEntry{
		ID: id, UserID: "u1", UserEmail: "a@x.io", Code: "482913",
		IssuedAt: issued, ExpiresAt: issued.Add(domain.VerificationWindow), Verified: verified,
	}
}

func TestLedger_LatestPendingPicksNewest(t *testing.T) {
	ctx := context.Background()
	r := NewLedgerRepo()
	require.NoError(t, r.Insert(ctx, entry("a", t0, false)))
	require.NoError(t, r.Insert(ctx, entry("b", t0.Add(time.Minute), false)))

	got, err := r.LatestPending(ctx, "u1", t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestLedger_LatestPendingSkipsExpiredAndVerified(t *testing.T) {
	ctx := context.Background()
	r := NewLedgerRepo()
	require.NoError(t, r.Insert(ctx, entry("old", t0, false)))
	require.NoError(t, r.Insert(ctx, entry("done", t0.Add(time.Minute), true)))

	got, err := r.LatestPending(ctx, "u1", t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "old", got.ID)

	_, err = r.LatestPending(ctx, "u1", t0.Add(10*time.Minute))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	latest, err := r.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "done", latest.ID)
}

func TestLedger_MarkVerifiedOnce(t *testing.T) {
	ctx := context.Background()
	r := NewLedgerRepo()
	require.NoError(t, r.Insert(ctx, entry("a", t0, false)))

	require.NoError(t, r.MarkVerified(ctx, "a"))
	assert.ErrorIs(t, r.MarkVerified(ctx, "a"), domain.ErrConflict)
	assert.ErrorIs(t, r.MarkVerified(ctx, "missing"), domain.ErrConflict)
}

func TestLedger_InsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	r := NewLedgerRepo()
	require.NoError(t, r.Insert(ctx, entry("a", t0, false)))
	assert.ErrorIs(t, r.Insert(ctx, entry("a", t0, false)), domain.ErrConflict)
}

func TestPinRepo_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	r := NewPinRepo()
	_, err := r.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, r.Upsert(ctx, &domain.PinRecord{ID: "p1", UserID: "u1", Pin: "h1", CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, r.Upsert(ctx, &domain.PinRecord{ID: "p2", UserID: "u1", Pin: "h2", CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour)}))

	got, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "h2", got.Pin)
	assert.Equal(t, t0, got.CreatedAt)
}

func TestAttemptCounter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	now := t0
	c := NewAttemptCounter(func() time.Time { return now })

	n, _ := c.Incr(ctx, "k", time.Minute)
	assert.Equal(t, 1, n)
	n, _ = c.Incr(ctx, "k", time.Minute)
	assert.Equal(t, 2, n)

	now = now.Add(time.Minute)
	n, _ = c.Incr(ctx, "k", time.Minute)
	assert.Equal(t, 1, n)

	require.NoError(t, c.Reset(ctx, "k"))
	n, _ = c.Incr(ctx, "k", time.Minute)
	assert.Equal(t, 1, n)
}

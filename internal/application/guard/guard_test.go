package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/infrastructure/memory"
)

type mockIdentity struct{ mock.Mock }

func (m *mockIdentity) CurrentSession(ctx context.Context) (*domain.Session, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type brokenLedger struct{}

func (brokenLedger) Latest(context.Context, string) (*domain.OTPEntry, error) {
	return nil, errors.New("dial tcp: i/o timeout")
}

// staleIndex serves a fixed entry, like a secondary index that has not yet
// seen the newest write.
type staleIndex struct{ entry *domain.OTPEntry }

func (s staleIndex) Latest(context.Context, string) (*domain.OTPEntry, error) {
	cp := *s.entry
	return &cp, nil
}

type fakeHint struct {
	st  *domain.VerificationState
	err error
}

func (f *fakeHint) ReadVerification(context.Context) (*domain.VerificationState, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.st == nil {
		return nil, domain.ErrNotFound
	}
	cp := *f.st
	return &cp, nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var alice = &domain.Session{ID: "s1", Reference: "ref-1", Identity: domain.Identity{UserID: "u1", Email: "alice@example.com"}}

type fixture struct {
	svc    Service
	id     *mockIdentity
	ledger *memory.LedgerRepo
	hint   *fakeHint
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{id: &mockIdentity{}, ledger: memory.NewLedgerRepo(), hint: &fakeHint{}, now: t0}
	f.svc = NewService(ServiceDeps{
		Identity:   f.id,
		LedgerRepo: f.ledger,
		LocalState: f.hint,
		VerifyPath: "/v1/verify",
		Now:        func() time.Time { return f.now },
	})
	return f
}

// signIn mirrors what a successful password check leaves behind.
func (f *fixture) signIn(t *testing.T, at time.Time) *domain.OTPEntry {
	t.Helper()
	e := &domain.OTPEntry{ID: "e-" + at.Format("150405"), UserID: "u1", SessionID: alice.ID, Code: "482913", IssuedAt: at, ExpiresAt: at.Add(domain.VerificationWindow)}
	require.NoError(t, f.ledger.Insert(context.Background(), e))
	f.hint.st = &domain.VerificationState{Email: "alice@example.com", SessionReference: "ref-1", IssuedAt: at}
	return e
}

func TestEvaluate_FreshSignInResumesVerification(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)

	f.now = t0.Add(5 * time.Second)
	res := f.svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToVerify, res.Decision)
	assert.Equal(t, alice, res.Session)
}

func TestEvaluate_PermitsAfterVerification(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	e := f.signIn(t, t0)

	require.NoError(t, f.ledger.MarkVerified(context.Background(), e.ID))
	f.hint.st = nil
	f.now = t0.Add(30 * time.Second)

	res := f.svc.Evaluate(context.Background(), "/v1/wallets")
	assert.Equal(t, Permit, res.Decision)
	assert.Equal(t, alice, res.Session)
}

func TestEvaluate_AbandonedVerificationSendsToSignIn(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)

	f.now = t0.Add(601 * time.Second)
	res := f.svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToSignIn, res.Decision)
	assert.ErrorIs(t, res.Reason, domain.ErrStateExpired)
}

func TestEvaluate_VerifyScreenAlwaysPermitted(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(nil, nil)

	for _, p := range []string{"/v1/verify", "/v1/verify/countdown"} {
		res := f.svc.Evaluate(context.Background(), p)
		assert.Equal(t, Permit, res.Decision, p)
		assert.Nil(t, res.Session)
	}
	res := f.svc.Evaluate(context.Background(), "/v1/verifyx")
	assert.Equal(t, RedirectToSignIn, res.Decision)
}

func TestEvaluate_LedgerFailureFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	svc := NewService(ServiceDeps{Identity: f.id, LedgerRepo: brokenLedger{}, LocalState: f.hint, Now: func() time.Time { return t0 }})

	res := svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToVerify, res.Decision)
	var netErr *domain.NetworkError
	assert.ErrorAs(t, res.Reason, &netErr)
}

func TestEvaluate_IdentityFailure(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(nil, domain.Network("session lookup", errors.New("down")))

	assert.Equal(t, RedirectToSignIn, f.svc.Evaluate(context.Background(), "/v1/me").Decision)
	assert.Equal(t, Permit, f.svc.Evaluate(context.Background(), "/v1/verify").Decision)
}

func TestEvaluate_HintFromOtherSessionIgnored(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)
	f.hint.st.SessionReference = "ref-old"

	res := f.svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToSignIn, res.Decision)
	assert.ErrorIs(t, res.Reason, domain.ErrStateMissing)
}

// Client clock behind the server: the hint still looks valid after the
// ledger entry has expired server-side. The guard resumes verification and
// the gate then reports no pending code; access is never granted.
func TestEvaluate_ClientClockBehind(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)
	f.hint.st.IssuedAt = t0.Add(2 * time.Minute)

	f.now = t0.Add(11 * time.Minute)
	res := f.svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToVerify, res.Decision)
}

// Client clock ahead: the hint goes stale while the server entry is still
// pending. The user is sent back to sign in rather than let through.
func TestEvaluate_ClientClockAhead(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)
	f.hint.st.IssuedAt = t0.Add(-2 * time.Minute)

	f.now = t0.Add(9 * time.Minute)
	res := f.svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToSignIn, res.Decision)
	assert.ErrorIs(t, res.Reason, domain.ErrStateExpired)
}

func TestEvaluate_UnreadableHintTreatedAsAbsent(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)
	f.hint.err = errors.New("database is locked")

	res := f.svc.Evaluate(context.Background(), "/v1/me")
	assert.Equal(t, RedirectToSignIn, res.Decision)
}

func TestEvaluate_LaggingLedgerDoesNotCarryOldVerification(t *testing.T) {
	f := newFixture(t)
	second := &domain.Session{ID: "s2", Reference: "ref-2", Identity: alice.Identity}
	f.id.On("CurrentSession", mock.Anything).Return(second, nil)
	old := &domain.OTPEntry{ID: "e-old", UserID: "u1", SessionID: "s1", IssuedAt: t0, ExpiresAt: t0.Add(domain.VerificationWindow), Verified: true}
	f.hint.st = &domain.VerificationState{Email: "alice@example.com", SessionReference: "ref-2", IssuedAt: t0.Add(time.Hour)}
	f.now = t0.Add(time.Hour + time.Second)

	svc := NewService(ServiceDeps{Identity: f.id, LedgerRepo: staleIndex{entry: old}, LocalState: f.hint, Now: func() time.Time { return f.now }})
	res := svc.Evaluate(context.Background(), "/v1/wallets")

	assert.Equal(t, RedirectToVerify, res.Decision)
	assert.ErrorIs(t, res.Reason, domain.ErrOTPNoPendingCode)
}

func TestEvaluate_OtherSignInVerifiedDoesNotPermit(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.signIn(t, t0)

	other := &domain.OTPEntry{ID: "e-other", UserID: "u1", SessionID: "s9", IssuedAt: t0.Add(time.Second), ExpiresAt: t0.Add(domain.VerificationWindow), Verified: true}
	require.NoError(t, f.ledger.Insert(context.Background(), other))
	f.now = t0.Add(5 * time.Second)

	res := f.svc.Evaluate(context.Background(), "/v1/wallets")
	assert.Equal(t, RedirectToVerify, res.Decision)
}

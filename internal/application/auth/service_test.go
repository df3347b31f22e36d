package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/pkg/otpcode"
)

// --- mocks ---

type mockIdentity struct{ mock.Mock }

func (m *mockIdentity) VerifyPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentity) CurrentSession(ctx context.Context) (*domain.Session, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentity) InvalidateSession(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}
func (m *mockIdentity) EnableTOTP(ctx context.Context, userID, secret string) error {
	return m.Called(ctx, userID, secret).Error(0)
}

// journal records the order of side effects across fakes.
type journal struct{ steps []string }

type fakeLedger struct {
	j       *journal
	entries []*domain.OTPEntry
	err     error
}

func (f *fakeLedger) Insert(_ context.Context, e *domain.OTPEntry) error {
	if f.err != nil {
		return f.err
	}
	f.j.steps = append(f.j.steps, "ledger")
	f.entries = append(f.entries, e)
	return nil
}

type fakeSlot struct {
	j   *journal
	now func() time.Time
	st  *domain.VerificationState
}

func (f *fakeSlot) WriteVerification(_ context.Context, email, ref string) error {
	f.j.steps = append(f.j.steps, "vss")
	f.st = &domain.VerificationState{Email: email, SessionReference: ref, IssuedAt: f.now()}
	return nil
}
func (f *fakeSlot) WritePendingSecret(_ context.Context, email, ref, secret string) error {
	f.st = &domain.VerificationState{Email: email, SessionReference: ref, IssuedAt: f.now(), TOTPSecret: secret}
	return nil
}
func (f *fakeSlot) ReadVerification(context.Context) (*domain.VerificationState, error) {
	if f.st == nil {
		return nil, domain.ErrNotFound
	}
	cp := *f.st
	return &cp, nil
}
func (f *fakeSlot) ClearVerification(context.Context) error {
	f.j.steps = append(f.j.steps, "clear")
	f.st = nil
	return nil
}

type fakeMailer struct {
	to, code string
	err      error
}

func (f *fakeMailer) SendCode(_ context.Context, to, code string) error {
	f.to, f.code = to, code
	return f.err
}

type fakeRevoker struct{ revoked []string }

func (f *fakeRevoker) RevokeUser(userID string) { f.revoked = append(f.revoked, userID) }

// --- fixture ---

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var alice = &domain.Session{ID: "s1", Reference: "ref-1", Identity: domain.Identity{UserID: "u1", Email: "alice@example.com"}}

type fixture struct {
	svc     Service
	id      *mockIdentity
	ledger  *fakeLedger
	slot    *fakeSlot
	mailer  *fakeMailer
	revoker *fakeRevoker
	j       *journal
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{id: &mockIdentity{}, mailer: &fakeMailer{}, revoker: &fakeRevoker{}, j: &journal{}, now: t0}
	clock := func() time.Time { return f.now }
	f.ledger = &fakeLedger{j: f.j}
	f.slot = &fakeSlot{j: f.j, now: clock}
	f.svc = NewService(ServiceDeps{
		Identity:   f.id,
		LedgerRepo: f.ledger,
		LocalState: f.slot,
		Mailer:     f.mailer,
		StepUp:     f.revoker,
		TOTPIssuer: "NextWallet",
		Now:        clock,
	})
	return f
}

// --- SignIn ---

func TestSignIn_WritesOneEntryThenLocalHint(t *testing.T) {
	f := newFixture(t)
	f.id.On("VerifyPassword", mock.Anything, "alice@example.com", "pw").Return(alice, nil)

	res, err := f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	require.Len(t, f.ledger.entries, 1)
	e := f.ledger.entries[0]
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "alice@example.com", e.UserEmail)
	assert.Equal(t, "s1", e.SessionID)
	assert.True(t, otpcode.Valid(e.Code))
	assert.False(t, e.Verified)
	assert.Equal(t, t0, e.IssuedAt)
	assert.Equal(t, t0.Add(10*time.Minute), e.ExpiresAt)
	assert.NotEmpty(t, e.ID)

	assert.Equal(t, []string{"ledger", "vss"}, f.j.steps)
	require.NotNil(t, f.slot.st)
	assert.Equal(t, "ref-1", f.slot.st.SessionReference)
	assert.Equal(t, "alice@example.com", f.slot.st.Email)

	assert.Equal(t, e.Code, f.mailer.code)
	assert.Equal(t, "alice@example.com", f.mailer.to)
	assert.Equal(t, e.ExpiresAt, res.ExpiresAt)
	assert.Equal(t, alice.Identity, res.Identity)
}

func TestSignIn_LedgerTimesAreWholeSeconds(t *testing.T) {
	f := newFixture(t)
	f.id.On("VerifyPassword", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)
	f.now = t0.Add(1500 * time.Millisecond)

	_, err := f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	e := f.ledger.entries[0]
	assert.Equal(t, t0.Add(time.Second), e.IssuedAt)
	assert.Equal(t, t0.Add(time.Second+domain.VerificationWindow), e.ExpiresAt)
}

func TestSignIn_InvalidCredentialsWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.id.On("VerifyPassword", mock.Anything, "alice@example.com", "bad").Return(nil, domain.ErrInvalidCredentials)

	_, err := f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "bad"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, f.ledger.entries)
	assert.Nil(t, f.slot.st)
	assert.Empty(t, f.mailer.code)
}

func TestSignIn_LedgerFailureLeavesNoLocalHint(t *testing.T) {
	f := newFixture(t)
	f.id.On("VerifyPassword", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)
	f.ledger.err = errors.New("connection reset")

	_, err := f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "pw"})
	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.Nil(t, f.slot.st)
}

func TestSignIn_MailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.id.On("VerifyPassword", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Len(t, f.ledger.entries, 1)
	assert.NotNil(t, f.slot.st)
}

func TestSignIn_RepeatedSignInAppendsEntries(t *testing.T) {
	f := newFixture(t)
	f.id.On("VerifyPassword", mock.Anything, mock.Anything, mock.Anything).Return(alice, nil)

	_, err := f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	f.now = t0.Add(time.Minute)
	_, err = f.svc.SignIn(context.Background(), domain.SignInRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	require.Len(t, f.ledger.entries, 2)
	assert.NotEqual(t, f.ledger.entries[0].ID, f.ledger.entries[1].ID)
	assert.Equal(t, t0.Add(time.Minute), f.slot.st.IssuedAt)
}

// --- SignOut ---

func TestSignOut_RevokesTokensAndClearsState(t *testing.T) {
	f := newFixture(t)
	f.slot.st = &domain.VerificationState{Email: "alice@example.com", SessionReference: "ref-1", IssuedAt: t0}
	f.id.On("CurrentSession", mock.Anything).Return(alice, nil)
	f.id.On("InvalidateSession", mock.Anything, "ref-1").Return(nil)

	require.NoError(t, f.svc.SignOut(context.Background()))
	assert.Equal(t, []string{"u1"}, f.revoker.revoked)
	assert.Nil(t, f.slot.st)
	f.id.AssertExpectations(t)
}

func TestSignOut_WithoutSessionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.id.On("CurrentSession", mock.Anything).Return(nil, nil)

	require.NoError(t, f.svc.SignOut(context.Background()))
	require.NoError(t, f.svc.SignOut(context.Background()))
	assert.Empty(t, f.revoker.revoked)
	f.id.AssertNotCalled(t, "InvalidateSession", mock.Anything, mock.Anything)
}

// --- TOTP enrollment ---

func TestEnrollAndConfirmTOTP(t *testing.T) {
	f := newFixture(t)
	enr, err := f.svc.EnrollTOTP(context.Background(), alice)
	require.NoError(t, err)
	assert.NotEmpty(t, enr.Secret)
	assert.Contains(t, enr.URL, "otpauth://totp/")
	require.NotNil(t, f.slot.st)
	assert.Equal(t, enr.Secret, f.slot.st.TOTPSecret)

	f.now = t0.Add(2 * time.Minute)
	code, err := totp.GenerateCode(enr.Secret, f.now)
	require.NoError(t, err)
	f.id.On("EnableTOTP", mock.Anything, "u1", enr.Secret).Return(nil)

	require.NoError(t, f.svc.ConfirmTOTP(context.Background(), alice, code))
	assert.Nil(t, f.slot.st)
	f.id.AssertExpectations(t)
}

func TestConfirmTOTP_Failures(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.ConfirmTOTP(context.Background(), alice, "12ab56"), domain.ErrOTPBadFormat)
	assert.ErrorIs(t, f.svc.ConfirmTOTP(context.Background(), alice, "123456"), domain.ErrStateMissing)

	enr, err := f.svc.EnrollTOTP(context.Background(), alice)
	require.NoError(t, err)

	other := &domain.Session{Reference: "ref-2", Identity: alice.Identity}
	assert.ErrorIs(t, f.svc.ConfirmTOTP(context.Background(), other, "123456"), domain.ErrStateMissing)

	f.now = t0.Add(time.Minute)
	good, err := totp.GenerateCode(enr.Secret, f.now)
	require.NoError(t, err)
	wrong := good[:5] + string('0'+(good[5]-'0'+1)%10)
	assert.ErrorIs(t, f.svc.ConfirmTOTP(context.Background(), alice, wrong), domain.ErrOTPMismatch)

	f.now = t0.Add(11 * time.Minute)
	assert.ErrorIs(t, f.svc.ConfirmTOTP(context.Background(), alice, good), domain.ErrStateExpired)
	assert.Nil(t, f.slot.st)
	f.id.AssertNotCalled(t, "EnableTOTP", mock.Anything, mock.Anything, mock.Anything)
}

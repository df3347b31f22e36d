package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	jwtinfra "github.com/nextwallet-vault/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	return m.Called(ctx, userID, secret).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.SessionRecord) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.SessionRecord); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Disable(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(id domain.Identity, sessionID string) (string, error) {
	args := m.Called(id, sessionID)
	return args.String(0), args.Error(1)
}
func (m *mockJWTSigner) Verify(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSlot struct{ mock.Mock }

func (m *mockSlot) SaveSession(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}
func (m *mockSlot) LoadSession(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockSlot) ClearSession(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- helpers ---

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSvc(us *mockUserStore, ss *mockSessionStore, jwt *mockJWTSigner, slot *mockSlot) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		SessionRepo: ss,
		JWTProvider: jwt,
		LocalState:  slot,
		Now:         func() time.Time { return t0 },
	})
}

func activeUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{UserID: "u1", Email: "a@x.io", PasswordHash: string(hash), Enable: true}
}

// --- VerifyPassword ---

func TestVerifyPassword_Success(t *testing.T) {
	us, ss, jwt, slot := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}
	us.On("GetByEmail", mock.Anything, "a@x.io").Return(activeUser(t, "hunter2"), nil)
	ss.On("Put", mock.Anything, mock.MatchedBy(func(r *domain.SessionRecord) bool {
		return r.UserID == "u1" && r.Enable && r.CreatedAt.Equal(t0)
	})).Return(nil)
	jwt.On("Sign", domain.Identity{UserID: "u1", Email: "a@x.io"}, mock.Anything).Return("ref", nil)
	slot.On("SaveSession", mock.Anything, "ref").Return(nil)

	sess, err := newSvc(us, ss, jwt, slot).VerifyPassword(context.Background(), "a@x.io", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "ref", sess.Reference)
	assert.Equal(t, "u1", sess.Identity.UserID)
	assert.NotEmpty(t, sess.ID)
	slot.AssertExpectations(t)
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	us, ss, jwt, slot := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}
	us.On("GetByEmail", mock.Anything, "a@x.io").Return(activeUser(t, "hunter2"), nil)

	_, err := newSvc(us, ss, jwt, slot).VerifyPassword(context.Background(), "a@x.io", "nope")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	slot.AssertNotCalled(t, "SaveSession", mock.Anything, mock.Anything)
}

func TestVerifyPassword_UnknownAndDisabledLookAlike(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.io").Return(nil, domain.ErrNotFound)
	disabled := activeUser(t, "hunter2")
	disabled.Enable = false
	us.On("GetByEmail", mock.Anything, "a@x.io").Return(disabled, nil)
	svc := newSvc(us, &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{})

	_, err1 := svc.VerifyPassword(context.Background(), "ghost@x.io", "hunter2")
	_, err2 := svc.VerifyPassword(context.Background(), "a@x.io", "hunter2")

	assert.ErrorIs(t, err1, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, err2, domain.ErrInvalidCredentials)
}

func TestVerifyPassword_BackendDown(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.io").Return(nil, errors.New("timeout"))

	_, err := newSvc(us, &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}).
		VerifyPassword(context.Background(), "a@x.io", "hunter2")

	var ne *domain.NetworkError
	assert.ErrorAs(t, err, &ne)
}

// --- CurrentSession ---

func TestCurrentSession_SignedOut(t *testing.T) {
	slot := &mockSlot{}
	slot.On("LoadSession", mock.Anything).Return("", domain.ErrNotFound)

	sess, err := newSvc(&mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}, slot).CurrentSession(context.Background())

	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCurrentSession_Live(t *testing.T) {
	ss, jwt, slot := &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}
	slot.On("LoadSession", mock.Anything).Return("ref", nil)
	jwt.On("Verify", "ref").Return(&jwtinfra.Claims{UserID: "u1", Email: "a@x.io", SessionID: "s1"}, nil)
	ss.On("Get", mock.Anything, "s1").Return(&domain.SessionRecord{SessionID: "s1", UserID: "u1", Enable: true}, nil)

	sess, err := newSvc(&mockUserStore{}, ss, jwt, slot).CurrentSession(context.Background())

	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, domain.Identity{UserID: "u1", Email: "a@x.io"}, sess.Identity)
}

func TestCurrentSession_DisabledRowClearsSlot(t *testing.T) {
	ss, jwt, slot := &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}
	slot.On("LoadSession", mock.Anything).Return("ref", nil)
	slot.On("ClearSession", mock.Anything).Return(nil)
	jwt.On("Verify", "ref").Return(&jwtinfra.Claims{UserID: "u1", SessionID: "s1"}, nil)
	ss.On("Get", mock.Anything, "s1").Return(&domain.SessionRecord{SessionID: "s1", UserID: "u1", Enable: false}, nil)

	sess, err := newSvc(&mockUserStore{}, ss, jwt, slot).CurrentSession(context.Background())

	require.NoError(t, err)
	assert.Nil(t, sess)
	slot.AssertCalled(t, "ClearSession", mock.Anything)
}

func TestCurrentSession_ExpiredTokenClearsSlot(t *testing.T) {
	jwt, slot := &mockJWTSigner{}, &mockSlot{}
	slot.On("LoadSession", mock.Anything).Return("ref", nil)
	slot.On("ClearSession", mock.Anything).Return(nil)
	jwt.On("Verify", "ref").Return(nil, errors.New("token is expired"))

	sess, err := newSvc(&mockUserStore{}, &mockSessionStore{}, jwt, slot).CurrentSession(context.Background())

	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCurrentSession_BackendDown(t *testing.T) {
	ss, jwt, slot := &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}
	slot.On("LoadSession", mock.Anything).Return("ref", nil)
	jwt.On("Verify", "ref").Return(&jwtinfra.Claims{UserID: "u1", SessionID: "s1"}, nil)
	ss.On("Get", mock.Anything, "s1").Return(nil, errors.New("throttled"))

	_, err := newSvc(&mockUserStore{}, ss, jwt, slot).CurrentSession(context.Background())

	var ne *domain.NetworkError
	assert.ErrorAs(t, err, &ne)
	slot.AssertNotCalled(t, "ClearSession", mock.Anything)
}

// --- InvalidateSession ---

func TestInvalidateSession_DisablesRowAndClearsSlot(t *testing.T) {
	ss, jwt, slot := &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{}
	jwt.On("Verify", "ref").Return(&jwtinfra.Claims{UserID: "u1", SessionID: "s1"}, nil)
	ss.On("Disable", mock.Anything, "s1").Return(nil)
	slot.On("ClearSession", mock.Anything).Return(nil)

	require.NoError(t, newSvc(&mockUserStore{}, ss, jwt, slot).InvalidateSession(context.Background(), "ref"))
	ss.AssertExpectations(t)
	slot.AssertExpectations(t)
}

func TestInvalidateSession_GarbageReferenceStillClears(t *testing.T) {
	jwt, slot := &mockJWTSigner{}, &mockSlot{}
	jwt.On("Verify", "junk").Return(nil, errors.New("malformed"))
	slot.On("ClearSession", mock.Anything).Return(nil)

	require.NoError(t, newSvc(&mockUserStore{}, &mockSessionStore{}, jwt, slot).InvalidateSession(context.Background(), "junk"))
	slot.AssertExpectations(t)
}

// --- TOTP secret ---

func TestTOTPSecret_RoundTrip(t *testing.T) {
	us := &mockUserStore{}
	us.On("SetTOTPSecret", mock.Anything, "u1", "SECRET").Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", TOTPSecret: "SECRET"}, nil)
	svc := newSvc(us, &mockSessionStore{}, &mockJWTSigner{}, &mockSlot{})

	require.NoError(t, svc.EnableTOTP(context.Background(), "u1", "SECRET"))
	secret, err := svc.TOTPSecret(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "SECRET", secret)
}

package domain

import "time"

// VerificationWindow bounds both the server-side OTP expiry and the client-side
// resumable hint.
const VerificationWindow = 10 * time.Minute

// OTPEntry is one row of the OTP Ledger. Only Verified is ever mutated, and only
// from false to true.
type OTPEntry struct {
	ID        string    `json:"id" dynamodbav:"id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	UserEmail string    `json:"user_email" dynamodbav:"user_email"`
	// SessionID is the session whose sign-in issued the entry. Verifying it
	// authorizes that session only.
	SessionID string    `json:"session_id" dynamodbav:"session_id"`
	Code      string    `json:"-" dynamodbav:"otp"`
	IssuedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
}

// LedgerTime truncates t to whole seconds in UTC, the precision DynamoDB keeps
// for expires_at. Entries issued at this precision expire at the same instant
// in every backend.
func LedgerTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Pending reports whether the entry can still be verified at now.
func (e *OTPEntry) Pending(now time.Time) bool {
	return !e.Verified && e.ExpiresAt.After(now)
}

// VerificationState is the client-local resume hint for an in-flight
// verification. It is never an authority; the ledger is.
type VerificationState struct {
	Email            string    `json:"email"`
	SessionReference string    `json:"sessionReference"`
	IssuedAt         time.Time `json:"issuedAt"`
	TOTPSecret       string    `json:"optionalSecret,omitempty"`
}

// ValidAt reports whether the hint is still inside its window at now.
func (s *VerificationState) ValidAt(now time.Time) bool {
	return s != nil && now.Sub(s.IssuedAt) < VerificationWindow
}

// ExpiresAt is the client's own deadline for this hint.
func (s *VerificationState) ExpiresAt() time.Time {
	return s.IssuedAt.Add(VerificationWindow)
}

type VerifyRequest struct {
	Code   string `json:"code"`
	Method string `json:"method" validate:"omitempty,oneof=email totp"`
}

type ConfirmTOTPRequest struct {
	Code string `json:"code"`
}

const (
	MethodEmail = "email"
	MethodTOTP  = "totp"
)

// VerificationEvent is the body of the best-effort outbound notification sent
// when a verification attempt completes or fails.
type VerificationEvent struct {
	Email      string    `json:"email"`
	UserID     string    `json:"userId"`
	Success    bool      `json:"success"`
	OTPEntered string    `json:"otpEntered"`
	AuthMethod string    `json:"authMethod"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

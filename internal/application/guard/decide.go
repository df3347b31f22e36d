// Package guard decides, for every request, whether the caller may reach a
// protected resource. The decision reconciles three sources: the session
// reference, the newest OTP ledger entry and the local verification hint.
package guard

import "github.com/nextwallet-vault/internal/domain"

type Decision string

const (
	Permit           Decision = "permit"
	RedirectToVerify Decision = "redirect_verify"
	RedirectToSignIn Decision = "redirect_sign_in"
)

// HintStatus is the local verification hint as seen at decision time.
type HintStatus int

const (
	HintAbsent HintStatus = iota
	HintValid
	HintStale
)

type Inputs struct {
	OnVerifyScreen bool
	HasSession     bool
	// SessionID identifies the current sign-in.
	SessionID string
	// Latest is the newest ledger entry for the identity; nil when none.
	Latest    *domain.OTPEntry
	LedgerErr error
	Hint      HintStatus
}

type Outcome struct {
	Decision Decision
	// Reason is nil on Permit.
	Reason error
}

// Decide is pure. It never permits while the newest ledger entry is
// unverified, missing or issued to another sign-in, and a ledger failure
// never permits.
func Decide(in Inputs) Outcome {
	if in.OnVerifyScreen {
		return Outcome{Decision: Permit}
	}
	if !in.HasSession {
		return Outcome{Decision: RedirectToSignIn, Reason: domain.ErrStateMissing}
	}
	if in.LedgerErr != nil {
		return Outcome{Decision: RedirectToVerify, Reason: in.LedgerErr}
	}
	if verifiedFor(in.Latest, in.SessionID) {
		return Outcome{Decision: Permit}
	}
	switch in.Hint {
	case HintValid:
		return Outcome{Decision: RedirectToVerify, Reason: domain.ErrOTPNoPendingCode}
	case HintStale:
		return Outcome{Decision: RedirectToSignIn, Reason: domain.ErrStateExpired}
	default:
		return Outcome{Decision: RedirectToSignIn, Reason: domain.ErrStateMissing}
	}
}

// verifiedFor holds only for an entry issued by this sign-in. A lagging
// index can still return an older session's verified entry as the newest.
func verifiedFor(e *domain.OTPEntry, sessionID string) bool {
	return e != nil && e.Verified && sessionID != "" && e.SessionID == sessionID
}

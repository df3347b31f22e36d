package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

type AuthReason string

const AuthInvalidCredentials AuthReason = "invalid_credentials"

// AuthError is terminal: the user must retry sign-in.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string { return "auth: " + string(e.Reason) }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Reason == e.Reason
}

type OTPReason string

const (
	OTPBadFormat       OTPReason = "bad_format"
	OTPMismatch        OTPReason = "mismatch"
	OTPNoPendingCode   OTPReason = "no_pending_code"
	OTPTooManyAttempts OTPReason = "too_many_attempts"
)

// OTPError is recoverable while the server-side expiry has not passed.
type OTPError struct {
	Reason OTPReason
}

func (e *OTPError) Error() string { return "otp: " + string(e.Reason) }

func (e *OTPError) Is(target error) bool {
	t, ok := target.(*OTPError)
	return ok && t.Reason == e.Reason
}

type StateReason string

const (
	StateMissing StateReason = "missing"
	StateExpired StateReason = "expired"
)

// StateError reports an absent or stale verification state. It always resolves
// to a redirect to sign-in.
type StateError struct {
	Reason StateReason
}

func (e *StateError) Error() string { return "verification state: " + string(e.Reason) }

func (e *StateError) Is(target error) bool {
	t, ok := target.(*StateError)
	return ok && t.Reason == e.Reason
}

type PinReason string

const (
	PinTooShort             PinReason = "too_short"
	PinMismatch             PinReason = "mismatch"
	PinNotSet               PinReason = "not_set"
	PinIncorrect            PinReason = "incorrect"
	PinInvalidFormat        PinReason = "invalid_format"
	PinLocked               PinReason = "locked"
	PinBiometricUnavailable PinReason = "biometric_unavailable"
)

type PinError struct {
	Reason PinReason
}

func (e *PinError) Error() string { return "pin: " + string(e.Reason) }

func (e *PinError) Is(target error) bool {
	t, ok := target.(*PinError)
	return ok && t.Reason == e.Reason
}

type StepUpReason string

const (
	StepUpMissing     StepUpReason = "missing"
	StepUpExpired     StepUpReason = "expired"
	StepUpWrongAction StepUpReason = "wrong_action"
)

// StepUpError is returned when a sensitive action is attempted without a live
// step-up token for that exact action.
type StepUpError struct {
	Reason StepUpReason
}

func (e *StepUpError) Error() string { return "step-up: " + string(e.Reason) }

func (e *StepUpError) Is(target error) bool {
	t, ok := target.(*StepUpError)
	return ok && t.Reason == e.Reason
}

// NetworkError wraps any backend call failure. Authorization paths treat it as
// "not yet authorized".
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// Network wraps err as a *NetworkError unless it is nil or already one.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}

var (
	ErrInvalidCredentials = &AuthError{Reason: AuthInvalidCredentials}

	ErrOTPBadFormat       = &OTPError{Reason: OTPBadFormat}
	ErrOTPMismatch        = &OTPError{Reason: OTPMismatch}
	ErrOTPNoPendingCode   = &OTPError{Reason: OTPNoPendingCode}
	ErrOTPTooManyAttempts = &OTPError{Reason: OTPTooManyAttempts}

	ErrStateMissing = &StateError{Reason: StateMissing}
	ErrStateExpired = &StateError{Reason: StateExpired}

	ErrPinTooShort             = &PinError{Reason: PinTooShort}
	ErrPinMismatch             = &PinError{Reason: PinMismatch}
	ErrPinNotSet               = &PinError{Reason: PinNotSet}
	ErrPinIncorrect            = &PinError{Reason: PinIncorrect}
	ErrPinInvalidFormat        = &PinError{Reason: PinInvalidFormat}
	ErrPinLocked               = &PinError{Reason: PinLocked}
	ErrPinBiometricUnavailable = &PinError{Reason: PinBiometricUnavailable}

	ErrStepUpMissing     = &StepUpError{Reason: StepUpMissing}
	ErrStepUpExpired     = &StepUpError{Reason: StepUpExpired}
	ErrStepUpWrongAction = &StepUpError{Reason: StepUpWrongAction}
)

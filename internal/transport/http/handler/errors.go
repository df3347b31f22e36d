package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/pkg/validate"
	"github.com/nextwallet-vault/internal/transport/http/middleware"
)

var validateStruct = validate.Struct

// writeServiceError maps the domain taxonomy onto HTTP. Verification-state
// errors never produce an error body alone; they always redirect to sign in.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		authErr   *domain.AuthError
		otpErr    *domain.OTPError
		stateErr  *domain.StateError
		pinErr    *domain.PinError
		stepUpErr *domain.StepUpError
		netErr    *domain.NetworkError
	)
	switch {
	case errors.As(err, &stateErr):
		middleware.Redirect(w, middleware.SignInPath, "state_"+string(stateErr.Reason))
	case errors.As(err, &authErr):
		writeCodedError(w, http.StatusUnauthorized, string(authErr.Reason), "invalid email or password")
	case errors.As(err, &otpErr):
		writeCodedError(w, otpStatus(otpErr.Reason), "otp_"+string(otpErr.Reason), err.Error())
	case errors.As(err, &pinErr):
		writeCodedError(w, pinStatus(pinErr.Reason), "pin_"+string(pinErr.Reason), err.Error())
	case errors.As(err, &stepUpErr):
		writeCodedError(w, http.StatusForbidden, "step_up_"+string(stepUpErr.Reason), err.Error())
	case errors.As(err, &netErr):
		slog.Error("backend unavailable", "op", netErr.Op, "err", netErr.Err)
		writeCodedError(w, http.StatusServiceUnavailable, "network", "backend unavailable")
	case errors.Is(err, domain.ErrBadRequest):
		writeCodedError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeCodedError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeCodedError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		slog.Error("unhandled service error", "err", err)
		writeCodedError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func otpStatus(r domain.OTPReason) int {
	switch r {
	case domain.OTPBadFormat:
		return http.StatusUnprocessableEntity
	case domain.OTPNoPendingCode:
		return http.StatusGone
	case domain.OTPTooManyAttempts:
		return http.StatusTooManyRequests
	}
	return http.StatusUnauthorized
}

func pinStatus(r domain.PinReason) int {
	switch r {
	case domain.PinTooShort, domain.PinMismatch, domain.PinInvalidFormat:
		return http.StatusUnprocessableEntity
	case domain.PinNotSet:
		return http.StatusConflict
	case domain.PinLocked:
		return http.StatusLocked
	case domain.PinBiometricUnavailable:
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// sessionOr401 returns the guard-resolved session.
func sessionOr401(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeCodedError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}
	return sess, ok
}

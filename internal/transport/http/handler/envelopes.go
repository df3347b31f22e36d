package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nextwallet-vault/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// SignInEnvelope tells the caller a code is on its way. It does not carry a
// redirect; the client navigates to the verification screen itself.
type SignInEnvelope struct {
	Identity  domain.Identity `json:"identity"`
	ExpiresAt time.Time       `json:"expires_at"`
	Next      string          `json:"next"`
}

type MeEnvelope struct {
	Identity domain.Identity `json:"identity"`
}

type VerifyScreenEnvelope struct {
	Email            string    `json:"email"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

type PinStatusEnvelope struct {
	Set  bool   `json:"set"`
	Mode string `json:"mode"`
}

type PreferenceEnvelope struct {
	BiometricEnabled bool `json:"biometric_enabled"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func writeCodedError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: code})
}

// decode reads a JSON body into v and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeCodedError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	if err := validateStruct(v); err != nil {
		writeCodedError(w, http.StatusUnprocessableEntity, "validation", err.Error())
		return false
	}
	return true
}

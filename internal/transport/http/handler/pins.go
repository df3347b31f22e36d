package handler

import (
	"context"
	"net/http"

	"github.com/nextwallet-vault/internal/application/stepup"
	"github.com/nextwallet-vault/internal/domain"
)

type biometricPreference interface {
	BiometricEnabled(ctx context.Context) (bool, error)
	SetBiometricEnabled(ctx context.Context, enabled bool) error
}

// PinHandler handles the step-up PIN screens and the biometric shortcut.
type PinHandler struct {
	svc   stepup.Service
	prefs biometricPreference
}

func NewPinHandler(svc stepup.Service, prefs biometricPreference) *PinHandler {
	return &PinHandler{svc: svc, prefs: prefs}
}

// Status tells the client whether to show the create or the verify screen.
func (h *PinHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	set, err := h.svc.PinStatus(r.Context(), sess.Identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	mode := "create"
	if set {
		mode = "verify"
	}
	writeJSON(w, http.StatusOK, PinStatusEnvelope{Set: set, Mode: mode})
}

func (h *PinHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.CreatePinRequest
	if !decode(w, r, &req) {
		return
	}
	tok, err := h.svc.Create(r.Context(), sess.Identity.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tok)
}

func (h *PinHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.VerifyPinRequest
	if !decode(w, r, &req) {
		return
	}
	tok, err := h.svc.Verify(r.Context(), sess.Identity.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (h *PinHandler) Biometric(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.BiometricRequest
	if !decode(w, r, &req) {
		return
	}
	tok, err := h.svc.Biometric(r.Context(), sess.Identity.UserID, req.Action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (h *PinHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.RotatePinRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Rotate(r.Context(), sess.Identity.UserID, req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pin updated"})
}

func (h *PinHandler) SetBiometric(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionOr401(w, r); !ok {
		return
	}
	var req domain.BiometricPreferenceRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.prefs.SetBiometricEnabled(r.Context(), *req.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}
	enabled, err := h.prefs.BiometricEnabled(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PreferenceEnvelope{BiometricEnabled: enabled})
}

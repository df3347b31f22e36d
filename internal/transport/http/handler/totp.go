package handler

import (
	"net/http"

	"github.com/nextwallet-vault/internal/application/auth"
	"github.com/nextwallet-vault/internal/domain"
)

type TOTPHandler struct {
	svc auth.Service
}

func NewTOTPHandler(svc auth.Service) *TOTPHandler { return &TOTPHandler{svc: svc} }

func (h *TOTPHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	enr, err := h.svc.EnrollTOTP(r.Context(), sess)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enr)
}

func (h *TOTPHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.ConfirmTOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ConfirmTOTP(r.Context(), sess, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "authenticator enabled"})
}

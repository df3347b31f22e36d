package handler

import (
	"net/http"

	"github.com/nextwallet-vault/internal/application/auth"
	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/transport/http/middleware"
)

// SessionHandler handles sign-in, sign-out and the current identity.
type SessionHandler struct {
	svc auth.Service
}

func NewSessionHandler(svc auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SignInEnvelope{
		Identity:  res.Identity,
		ExpiresAt: res.ExpiresAt,
		Next:      middleware.VerifyPath,
	})
}

func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{Identity: sess.Identity})
}

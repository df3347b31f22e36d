package handler

import (
	"net/http"

	"github.com/nextwallet-vault/internal/application/vault"
	"github.com/nextwallet-vault/internal/domain"
)

// VaultHandler exposes the step-up gated actions.
type VaultHandler struct {
	svc vault.Service
}

func NewVaultHandler(svc vault.Service) *VaultHandler { return &VaultHandler{svc: svc} }

func (h *VaultHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.CreateWalletRequest
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.svc.CreateWallet(r.Context(), sess.Identity.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *VaultHandler) WipeLocalData(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.WipeLocalData(r.Context(), sess.Identity.UserID, req.Token); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "local data wiped"})
}

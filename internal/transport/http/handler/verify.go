package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextwallet-vault/internal/application/otp"
	"github.com/nextwallet-vault/internal/domain"
	"github.com/nextwallet-vault/internal/transport/http/middleware"
)

// VerifyHandler serves the verification screen, code submission and the
// countdown stream.
type VerifyHandler struct {
	svc otp.Service
}

func NewVerifyHandler(svc otp.Service) *VerifyHandler { return &VerifyHandler{svc: svc} }

func (h *VerifyHandler) Screen(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Screen(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyScreenEnvelope{
		Email:            st.Email,
		ExpiresAt:        st.ExpiresAt,
		RemainingSeconds: int(st.Remaining / time.Second),
	})
}

// Submit expects RequireSession in front of it.
func (h *VerifyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var req domain.VerifyRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Verify(r.Context(), sess, req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verified"})
}

type countdownEvent struct {
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
	RedirectTo       string `json:"redirect_to,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

// Countdown streams the remaining time as server-sent events. When the
// window runs out it clears the local hint and sends the client to sign in,
// unless a newer hint has replaced the one the stream was opened for.
// Closing the connection stops the timer without clearing anything.
func (h *VerifyHandler) Countdown(w http.ResponseWriter, r *http.Request) {
	cd, err := h.svc.Countdown(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeCodedError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}
	// The stream outlives the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("countdown stream keeps the server write deadline", "err", err)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, body countdownEvent) {
		raw, _ := json.Marshal(body)
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw)
		flusher.Flush()
	}
	cd.Run(r.Context(),
		func(remaining time.Duration) {
			send("tick", countdownEvent{RemainingSeconds: int((remaining + time.Second - 1) / time.Second)})
		},
		func() {
			expired, err := h.svc.Expire(r.Context(), cd)
			if err != nil {
				slog.Warn("failed to clear expired verification state", "err", err)
			}
			if !expired && err == nil {
				// A newer sign-in owns the slot; reload its screen.
				send("superseded", countdownEvent{RedirectTo: middleware.VerifyPath})
				return
			}
			send("expired", countdownEvent{RedirectTo: middleware.SignInPath, ErrorCode: "state_expired"})
		},
	)
}

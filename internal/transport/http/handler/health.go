package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

const readyTimeout = 2 * time.Second

// Probe reports whether one backing store is reachable.
type Probe func(ctx context.Context) error

// ReadyEnvelope lists the probes that failed, by name.
type ReadyEnvelope struct {
	Message string   `json:"message"`
	Failing []string `json:"failing,omitempty"`
}

// HealthHandler answers liveness ("ping") and readiness ("ready") checks.
type HealthHandler struct {
	probes map[string]Probe
}

func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "ready":
		h.ready(w, r)
	default:
		writeCodedError(w, http.StatusBadRequest, "bad_request", "unknown action")
	}
}

func (h *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var failing []string
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			failing = append(failing, name)
		}
	}
	if len(failing) > 0 {
		sort.Strings(failing)
		writeJSON(w, http.StatusServiceUnavailable, ReadyEnvelope{Message: "degraded", Failing: failing})
		return
	}
	writeJSON(w, http.StatusOK, ReadyEnvelope{Message: "ready"})
}

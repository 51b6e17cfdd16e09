package http

import (
	"context"
	"net/http"
	"time"
)

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	ready := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			ready = false
			checks[check.Name()] = "unavailable"
			logFailure(r.Context(), "readyz", http.StatusServiceUnavailable, "NOT_READY", check.Name()+" unavailable", err)
			continue
		}
		checks[check.Name()] = "ok"
	}

	if !ready {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": checks})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

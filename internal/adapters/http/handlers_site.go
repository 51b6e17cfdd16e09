package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cyberdyne10/huntress/internal/domain"
)

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

type demoIntakeResponse struct {
	Message string            `json:"message"`
	Data    domain.DemoIntake `json:"data"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Count: len(items)}
}

func (h *Handler) listIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.ListIncidents(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_incidents", err)
		return
	}
	respondJSON(w, http.StatusOK, newListResponse(incidents))
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListAlerts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_alerts", err)
		return
	}
	respondJSON(w, http.StatusOK, newListResponse(alerts))
}

// demoIntake accepts the marketing form. Extra form fields are ignored.
func (h *Handler) demoIntake(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	var req domain.DemoIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeBodyTooLarge(r.Context(), w, "demo_intake")
			return
		}
		writeValidationError(r.Context(), w, "demo_intake", err)
		return
	}

	intake, err := h.service.SubmitDemoIntake(r.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeFieldErrors(r.Context(), w, "demo_intake", verr)
			return
		}
		writeMappedError(r.Context(), w, "demo_intake", err)
		return
	}
	respondJSON(w, http.StatusCreated, demoIntakeResponse{Message: "Demo request received", Data: intake})
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cyberdyne10/huntress/internal/domain"
)

type webhookEventResponse struct {
	EventID        string     `json:"eventId"`
	RecordID       string     `json:"recordId"`
	DeliveryStatus string     `json:"deliveryStatus"`
	OccurredAt     *time.Time `json:"occurredAt,omitempty"`
	ReceivedAt     time.Time  `json:"receivedAt"`
	PayloadHash    string     `json:"payloadHash"`
	Status         string     `json:"status"`
}

type crmRecordResponse struct {
	RecordID    string    `json:"recordId"`
	Status      string    `json:"status"`
	LastEventID string    `json:"lastEventId"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) adminOverview(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "admin_overview", domain.ErrUnauthenticated)
		return
	}
	snap, err := h.service.Overview(r.Context(), caller)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_overview", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) adminWebhookEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.WebhookEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_webhook_event", err)
		return
	}
	respondJSON(w, http.StatusOK, webhookEventResponse{
		EventID:        event.EventID,
		RecordID:       event.RecordID,
		DeliveryStatus: event.DeliveryStatus,
		OccurredAt:     event.OccurredAt,
		ReceivedAt:     event.ReceivedAt,
		PayloadHash:    event.PayloadHash,
		Status:         string(event.Status),
	})
}

func (h *Handler) adminCRMRecord(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.CRMRecordState(r.Context(), chi.URLParam(r, "recordId"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_crm_record", err)
		return
	}
	respondJSON(w, http.StatusOK, crmRecordResponse{
		RecordID:    state.RecordID,
		Status:      state.Status,
		LastEventID: state.LastEventID,
		UpdatedAt:   state.UpdatedAt,
	})
}

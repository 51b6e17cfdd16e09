package http

import (
	"errors"
	"net/http"
)

// crmWebhookStatus must hand the untouched request bytes to the service:
// the vendor signs the raw body, so nothing may decode it first.
func (h *Handler) crmWebhookStatus(w http.ResponseWriter, r *http.Request) {
	body, err := readRawBody(w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeBodyTooLarge(r.Context(), w, "crm_webhook_status")
			return
		}
		writeValidationError(r.Context(), w, "crm_webhook_status", err)
		return
	}

	res, err := h.service.ReceiveWebhook(r.Context(), body, r.Header.Get(signatureHeaderName))
	if err != nil {
		writeMappedError(r.Context(), w, "crm_webhook_status", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IngestStatus is the outcome recorded for an inbound CRM delivery.
type IngestStatus string

const (
	IngestAccepted  IngestStatus = "accepted"
	IngestDuplicate IngestStatus = "duplicate"
	IngestRejected  IngestStatus = "rejected"
)

const (
	maxEventIDLength  = 128
	maxRecordIDLength = 128
	maxStatusLength   = 64
)

// WebhookEvent is the append-only audit record of an accepted delivery.
type WebhookEvent struct {
	EventID        string
	RecordID       string
	DeliveryStatus string
	OccurredAt     *time.Time
	ReceivedAt     time.Time
	PayloadHash    string
	Status         IngestStatus
}

// CRMStatusUpdate is the parsed body of a delivery-status webhook.
type CRMStatusUpdate struct {
	EventID    string     `json:"eventId"`
	RecordID   string     `json:"recordId"`
	Status     string     `json:"status"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

// ParseCRMStatusUpdate decodes and validates a raw webhook body. Unknown
// fields are tolerated because vendors add attributes without notice.
func ParseCRMStatusUpdate(raw []byte) (CRMStatusUpdate, error) {
	var update CRMStatusUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return CRMStatusUpdate{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	update.EventID = strings.TrimSpace(update.EventID)
	update.RecordID = strings.TrimSpace(update.RecordID)
	update.Status = strings.ToLower(strings.TrimSpace(update.Status))

	switch {
	case update.EventID == "":
		return CRMStatusUpdate{}, fmt.Errorf("%w: eventId is required", ErrMalformedPayload)
	case len(update.EventID) > maxEventIDLength:
		return CRMStatusUpdate{}, fmt.Errorf("%w: eventId too long", ErrMalformedPayload)
	case update.RecordID == "":
		return CRMStatusUpdate{}, fmt.Errorf("%w: recordId is required", ErrMalformedPayload)
	case len(update.RecordID) > maxRecordIDLength:
		return CRMStatusUpdate{}, fmt.Errorf("%w: recordId too long", ErrMalformedPayload)
	case update.Status == "":
		return CRMStatusUpdate{}, fmt.Errorf("%w: status is required", ErrMalformedPayload)
	case len(update.Status) > maxStatusLength:
		return CRMStatusUpdate{}, fmt.Errorf("%w: status too long", ErrMalformedPayload)
	}
	if update.OccurredAt != nil {
		utc := update.OccurredAt.UTC()
		update.OccurredAt = &utc
	}
	return update, nil
}

// WebhookAcceptance is returned to the vendor for every authenticated, well-formed delivery.
type WebhookAcceptance struct {
	EventID string       `json:"eventId"`
	Status  IngestStatus `json:"status"`
}

// CRMRecordState is the last applied delivery status of one CRM record.
type CRMRecordState struct {
	RecordID    string
	Status      string
	LastEventID string
	UpdatedAt   time.Time
}

// EventCRMDeliveryStatusUpdated is published through the outbox for every accepted delivery.
const EventCRMDeliveryStatusUpdated = "crm.delivery_status.updated"

// CRMDeliveryStatusMessage is the outbox payload of EventCRMDeliveryStatusUpdated.
type CRMDeliveryStatusMessage struct {
	EventID    string     `json:"event_id"`
	RecordID   string     `json:"record_id"`
	Status     string     `json:"status"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
}

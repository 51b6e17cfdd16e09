package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
	"github.com/cyberdyne10/huntress/internal/ports"
)

// ReceiveWebhook ingests one CRM delivery-status callback. The signature is
// checked over the exact bytes received before anything is parsed, and the
// record step is a single insert-if-absent so concurrent replays of one
// event id yield exactly one accepted result.
func (s *Service) ReceiveWebhook(ctx context.Context, rawPayload []byte, signatureHeader string) (domain.WebhookAcceptance, error) {
	if err := s.signatures.Verify(rawPayload, signatureHeader); err != nil {
		metrics.WebhookDeliveries.WithLabelValues(string(domain.IngestRejected)).Inc()
		appLogger().WarnContext(ctx, "webhook signature rejected",
			"operation", "receive_webhook",
			"outcome", "failure",
			"payload_bytes", len(rawPayload),
			"error", err,
		)
		if errors.Is(err, domain.ErrInvalidSignature) {
			return domain.WebhookAcceptance{}, err
		}
		return domain.WebhookAcceptance{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	update, err := domain.ParseCRMStatusUpdate(rawPayload)
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues(string(domain.IngestRejected)).Inc()
		appLogger().WarnContext(ctx, "webhook payload rejected",
			"operation", "receive_webhook",
			"outcome", "failure",
			"payload_bytes", len(rawPayload),
			"error", err,
		)
		return domain.WebhookAcceptance{}, err
	}

	now := s.nowFn()
	sum := sha256.Sum256(rawPayload)
	event := domain.WebhookEvent{
		EventID:        update.EventID,
		RecordID:       update.RecordID,
		DeliveryStatus: update.Status,
		OccurredAt:     update.OccurredAt,
		ReceivedAt:     now,
		PayloadHash:    hex.EncodeToString(sum[:]),
		Status:         domain.IngestAccepted,
	}
	payload, err := json.Marshal(domain.CRMDeliveryStatusMessage{
		EventID:    event.EventID,
		RecordID:   event.RecordID,
		Status:     event.DeliveryStatus,
		OccurredAt: event.OccurredAt,
		ReceivedAt: event.ReceivedAt,
	})
	if err != nil {
		return domain.WebhookAcceptance{}, fmt.Errorf("encode outbox payload: %w", err)
	}

	inserted, err := s.webhooks.RecordAccepted(ctx, ports.RecordAcceptedParams{
		Event: event,
		Outbox: ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    domain.EventCRMDeliveryStatusUpdated,
			PartitionKey: event.RecordID,
			Payload:      payload,
			OccurredAt:   now,
		},
	})
	if err != nil {
		appLogger().ErrorContext(ctx, "webhook event record failed",
			"operation", "receive_webhook",
			"outcome", "failure",
			"event_id", event.EventID,
			"error", err,
		)
		return domain.WebhookAcceptance{}, fmt.Errorf("record webhook event: %w", err)
	}

	status := domain.IngestAccepted
	if !inserted {
		status = domain.IngestDuplicate
	}
	metrics.WebhookDeliveries.WithLabelValues(string(status)).Inc()
	appLogger().InfoContext(ctx, "webhook delivery ingested",
		"operation", "receive_webhook",
		"outcome", "success",
		"event_id", event.EventID,
		"record_id", event.RecordID,
		"delivery_status", event.DeliveryStatus,
		"ingest_status", string(status),
	)
	return domain.WebhookAcceptance{EventID: event.EventID, Status: status}, nil
}

// WebhookEvent returns the stored record for an accepted event id.
func (s *Service) WebhookEvent(ctx context.Context, eventID string) (domain.WebhookEvent, error) {
	return s.webhooks.GetByEventID(ctx, eventID)
}

// CRMRecordState returns the last applied delivery status of a CRM record.
func (s *Service) CRMRecordState(ctx context.Context, recordID string) (domain.CRMRecordState, error) {
	return s.crm.GetRecordState(ctx, recordID)
}

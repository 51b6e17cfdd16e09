package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

type WebhookRepository struct {
	db *gorm.DB
}

// RecordAccepted inserts the event row with ON CONFLICT DO NOTHING. A
// concurrent delivery of the same event id blocks on the primary key until
// the first transaction commits and then affects zero rows, so only one
// caller ever applies the CRM update and writes the outbox row.
func (r *WebhookRepository) RecordAccepted(ctx context.Context, params ports.RecordAcceptedParams) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := params.Event
		row := webhookEventModel{
			EventID:        event.EventID,
			RecordID:       event.RecordID,
			DeliveryStatus: event.DeliveryStatus,
			OccurredAt:     event.OccurredAt,
			ReceivedAt:     event.ReceivedAt,
			PayloadHash:    event.PayloadHash,
			Status:         string(domain.IngestAccepted),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true

		updatedAt := event.ReceivedAt
		if event.OccurredAt != nil {
			updatedAt = *event.OccurredAt
		}
		state := crmRecordStateModel{
			RecordID:    event.RecordID,
			Status:      event.DeliveryStatus,
			LastEventID: event.EventID,
			UpdatedAt:   updatedAt,
		}
		// Out-of-order deliveries never roll a record back to an older status.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "last_event_id", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("crm_record_state.updated_at <= excluded.updated_at"),
			}},
		}).Create(&state).Error; err != nil {
			return err
		}

		if params.Outbox.EventType == "" {
			return nil
		}
		outbox := outboxModel{
			OutboxID:     params.Outbox.EventID,
			EventType:    params.Outbox.EventType,
			PartitionKey: params.Outbox.PartitionKey,
			Payload:      string(params.Outbox.Payload),
			CreatedAt:    params.Outbox.OccurredAt,
		}
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *WebhookRepository) GetByEventID(ctx context.Context, eventID string) (domain.WebhookEvent, error) {
	var row webhookEventModel
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&row).Error; err != nil {
		if isNotFound(err) {
			return domain.WebhookEvent{}, domain.ErrNotFound
		}
		return domain.WebhookEvent{}, err
	}
	return toDomainWebhookEvent(row), nil
}

func (r *WebhookRepository) CountAccepted(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&webhookEventModel{}).Count(&n).Error
	return n, err
}

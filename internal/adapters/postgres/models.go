package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

type accountModel struct {
	AccountID    uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey"`
	LoginName    string    `gorm:"column:login_name"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (accountModel) TableName() string { return "accounts" }

type sessionModel struct {
	TokenDigest string    `gorm:"column:token_digest;primaryKey"`
	AccountID   uuid.UUID `gorm:"column:account_id;type:uuid"`
	Role        string    `gorm:"column:role"`
	IssuedAt    time.Time `gorm:"column:issued_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type webhookEventModel struct {
	EventID        string     `gorm:"column:event_id;primaryKey"`
	RecordID       string     `gorm:"column:record_id"`
	DeliveryStatus string     `gorm:"column:delivery_status"`
	OccurredAt     *time.Time `gorm:"column:occurred_at"`
	ReceivedAt     time.Time  `gorm:"column:received_at"`
	PayloadHash    string     `gorm:"column:payload_hash"`
	Status         string     `gorm:"column:status"`
}

func (webhookEventModel) TableName() string { return "webhook_events" }

type crmRecordStateModel struct {
	RecordID    string    `gorm:"column:record_id;primaryKey"`
	Status      string    `gorm:"column:status"`
	LastEventID string    `gorm:"column:last_event_id"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (crmRecordStateModel) TableName() string { return "crm_record_state" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "outbox" }

func toDomainAccount(row accountModel) (domain.Account, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.Account{}, err
	}
	return domain.Account{
		AccountID:    row.AccountID,
		LoginName:    row.LoginName,
		PasswordHash: row.PasswordHash,
		Role:         role,
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

func toSessionRecord(row sessionModel) ports.SessionRecord {
	return ports.SessionRecord{
		AccountID: row.AccountID,
		Role:      row.Role,
		IssuedAt:  row.IssuedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}
}

func toDomainWebhookEvent(row webhookEventModel) domain.WebhookEvent {
	event := domain.WebhookEvent{
		EventID:        row.EventID,
		RecordID:       row.RecordID,
		DeliveryStatus: row.DeliveryStatus,
		ReceivedAt:     row.ReceivedAt.UTC(),
		PayloadHash:    row.PayloadHash,
		Status:         domain.IngestStatus(row.Status),
	}
	if row.OccurredAt != nil {
		at := row.OccurredAt.UTC()
		event.OccurredAt = &at
	}
	return event
}

func toDomainRecordState(row crmRecordStateModel) domain.CRMRecordState {
	return domain.CRMRecordState{
		RecordID:    row.RecordID,
		Status:      row.Status,
		LastEventID: row.LastEventID,
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func toOutboxRecord(row outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:       row.OutboxID,
		EventType:      row.EventType,
		PartitionKey:   row.PartitionKey,
		Payload:        []byte(row.Payload),
		RetryCount:     row.RetryCount,
		LastError:      row.LastError,
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
		LastErrorAt:    row.LastErrorAt,
		ClaimToken:     row.ClaimToken,
		ClaimUntil:     row.ClaimUntil,
		DeadLetteredAt: row.DeadLetteredAt,
	}
}

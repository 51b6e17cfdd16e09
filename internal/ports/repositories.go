package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
)

// AccountRepository is the credential store. Lookups take an already
// normalized login name and return domain.ErrNotFound when absent.
type AccountRepository interface {
	FindByLoginName(ctx context.Context, loginName string) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) error
	UpdatePasswordHash(ctx context.Context, loginName, passwordHash string) error
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
}

// SessionRecord is what a session store keeps under a token digest.
type SessionRecord struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore holds live sessions keyed by domain.TokenDigest.
// Delete is idempotent and Get returns domain.ErrNotFound for unknown digests.
type SessionStore interface {
	Put(ctx context.Context, digest string, record SessionRecord) error
	Get(ctx context.Context, digest string) (SessionRecord, error)
	Delete(ctx context.Context, digest string) error
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// RecordAcceptedParams is the unit written for a first-seen delivery.
type RecordAcceptedParams struct {
	Event  domain.WebhookEvent
	Outbox OutboxEvent
}

// WebhookEventStore records deliveries. RecordAccepted is a single atomic
// insert-if-absent keyed by event id: when it returns inserted=true the event
// row, the CRM record state and the outbox row were all written together;
// when inserted=false nothing was written.
type WebhookEventStore interface {
	RecordAccepted(ctx context.Context, params RecordAcceptedParams) (inserted bool, err error)
	GetByEventID(ctx context.Context, eventID string) (domain.WebhookEvent, error)
	CountAccepted(ctx context.Context) (int64, error)
}

// CRMSyncReader exposes the CRM sync state maintained by accepted deliveries.
type CRMSyncReader interface {
	CRMSyncStatus(ctx context.Context) (domain.CRMSyncStatus, error)
	GetRecordState(ctx context.Context, recordID string) (domain.CRMRecordState, error)
}

type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository is the claim/publish side of the transactional outbox.
type OutboxRepository interface {
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	CountPending(ctx context.Context) (int64, error)
}

// SiteContentStore serves the public incident and alert feeds and keeps
// submitted demo requests.
type SiteContentStore interface {
	ListIncidents(ctx context.Context) ([]domain.Incident, error)
	ListAlerts(ctx context.Context) ([]domain.Alert, error)
	CreateDemoIntake(ctx context.Context, intake domain.DemoIntake) error
}

// SiteMetricsReader supplies the marketing-site figures on the admin overview.
type SiteMetricsReader interface {
	SiteCounts(ctx context.Context) (domain.SiteCounts, error)
}

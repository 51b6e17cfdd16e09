package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

type Repositories struct {
	Accounts *AccountRepository
	Sessions *SessionStore
	Webhooks *WebhookRepository
	CRM      *CRMRepository
	Outbox   *OutboxRepository
	Site     *SiteRepository
}

// NewRepositories builds process-local stores. The webhook, CRM and outbox
// repositories share one ledger so an accepted delivery is applied under a
// single lock.
func NewRepositories() *Repositories {
	l := &ledger{
		events:  map[string]domain.WebhookEvent{},
		records: map[string]domain.CRMRecordState{},
		outbox:  map[uuid.UUID]*ports.OutboxRecord{},
	}
	return &Repositories{
		Accounts: &AccountRepository{rows: map[string]domain.Account{}},
		Sessions: NewSessionStore(),
		Webhooks: &WebhookRepository{ledger: l},
		CRM:      &CRMRepository{ledger: l},
		Outbox:   &OutboxRepository{ledger: l},
		Site:     NewSiteRepository(),
	}
}

type AccountRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.Account
}

func (r *AccountRepository) FindByLoginName(_ context.Context, loginName string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.rows[loginName]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[account.LoginName]; ok {
		return domain.ErrConflict
	}
	r.rows[account.LoginName] = account
	return nil
}

func (r *AccountRepository) UpdatePasswordHash(_ context.Context, loginName, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.rows[loginName]
	if !ok {
		return domain.ErrNotFound
	}
	account.PasswordHash = passwordHash
	r.rows[loginName] = account
	return nil
}

func (r *AccountRepository) CountByRole(_ context.Context) (map[domain.Role]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[domain.Role]int64{}
	for _, account := range r.rows {
		out[account.Role]++
	}
	return out, nil
}

type ledger struct {
	mu      sync.RWMutex
	events  map[string]domain.WebhookEvent
	records map[string]domain.CRMRecordState
	outbox  map[uuid.UUID]*ports.OutboxRecord
}

type WebhookRepository struct {
	ledger *ledger
}

func (r *WebhookRepository) RecordAccepted(_ context.Context, params ports.RecordAcceptedParams) (bool, error) {
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	event := params.Event
	if _, ok := l.events[event.EventID]; ok {
		return false, nil
	}
	event.Status = domain.IngestAccepted
	l.events[event.EventID] = event

	updatedAt := event.ReceivedAt
	if event.OccurredAt != nil {
		updatedAt = *event.OccurredAt
	}
	if current, ok := l.records[event.RecordID]; !ok || !updatedAt.Before(current.UpdatedAt) {
		l.records[event.RecordID] = domain.CRMRecordState{
			RecordID:    event.RecordID,
			Status:      event.DeliveryStatus,
			LastEventID: event.EventID,
			UpdatedAt:   updatedAt,
		}
	}

	if params.Outbox.EventID != uuid.Nil {
		l.outbox[params.Outbox.EventID] = &ports.OutboxRecord{
			OutboxID:     params.Outbox.EventID,
			EventType:    params.Outbox.EventType,
			PartitionKey: params.Outbox.PartitionKey,
			Payload:      append([]byte(nil), params.Outbox.Payload...),
			CreatedAt:    params.Outbox.OccurredAt,
		}
	}
	return true, nil
}

func (r *WebhookRepository) GetByEventID(_ context.Context, eventID string) (domain.WebhookEvent, error) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	event, ok := r.ledger.events[eventID]
	if !ok {
		return domain.WebhookEvent{}, domain.ErrNotFound
	}
	return event, nil
}

func (r *WebhookRepository) CountAccepted(_ context.Context) (int64, error) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	return int64(len(r.ledger.events)), nil
}

type CRMRepository struct {
	ledger *ledger
}

func (r *CRMRepository) CRMSyncStatus(_ context.Context) (domain.CRMSyncStatus, error) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()

	status := domain.CRMSyncStatus{
		State:          domain.CRMSyncIdle,
		TrackedRecords: int64(len(r.ledger.records)),
		ByStatus:       map[string]int64{},
	}
	for _, rec := range r.ledger.records {
		status.ByStatus[rec.Status]++
	}
	var last *domain.WebhookEvent
	for _, event := range r.ledger.events {
		if last == nil || event.ReceivedAt.After(last.ReceivedAt) {
			e := event
			last = &e
		}
	}
	if last != nil {
		at := last.ReceivedAt
		status.State = domain.CRMSyncActive
		status.LastEventAt = &at
		status.LastEventID = last.EventID
	}
	return status, nil
}

func (r *CRMRepository) GetRecordState(_ context.Context, recordID string) (domain.CRMRecordState, error) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	rec, ok := r.ledger.records[recordID]
	if !ok {
		return domain.CRMRecordState{}, domain.ErrNotFound
	}
	return rec, nil
}

type OutboxRepository struct {
	ledger *ledger
}

func (r *OutboxRepository) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	now := time.Now().UTC()
	pending := make([]*ports.OutboxRecord, 0)
	for _, rec := range r.ledger.outbox {
		if rec.PublishedAt != nil || rec.DeadLetteredAt != nil {
			continue
		}
		if rec.ClaimUntil != nil && rec.ClaimUntil.After(now) {
			continue
		}
		pending = append(pending, rec)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}

	out := make([]ports.OutboxRecord, 0, len(pending))
	for _, rec := range pending {
		token := claimToken
		until := claimUntil
		rec.ClaimToken = &token
		rec.ClaimUntil = &until
		out = append(out, *rec)
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	return r.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.PublishedAt = &at
	})
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
		rec.LastErrorAt = &at
	})
}

func (r *OutboxRepository) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
		rec.LastErrorAt = &at
		rec.DeadLetteredAt = &at
	})
}

func (r *OutboxRepository) CountPending(_ context.Context) (int64, error) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	var n int64
	for _, rec := range r.ledger.outbox {
		if rec.PublishedAt == nil && rec.DeadLetteredAt == nil {
			n++
		}
	}
	return n, nil
}

// Get returns a copy of one outbox row.
func (r *OutboxRepository) Get(outboxID uuid.UUID) (ports.OutboxRecord, bool) {
	r.ledger.mu.RLock()
	defer r.ledger.mu.RUnlock()
	rec, ok := r.ledger.outbox[outboxID]
	if !ok {
		return ports.OutboxRecord{}, false
	}
	return *rec, true
}

func (r *OutboxRepository) update(outboxID uuid.UUID, claimToken string, apply func(*ports.OutboxRecord)) error {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	rec, ok := r.ledger.outbox[outboxID]
	if !ok || rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
		return nil
	}
	apply(rec)
	rec.ClaimToken = nil
	rec.ClaimUntil = nil
	return nil
}

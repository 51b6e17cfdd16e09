package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
	"github.com/cyberdyne10/huntress/internal/ports"
)

// Dead-letter reasons recorded on the row and in huntress_crm_dead_letters_total.
const (
	deadLetterMalformed   = "malformed_payload"
	deadLetterUnsupported = "unsupported_event_type"
	deadLetterExhausted   = "retries_exhausted"
)

var errMissingRecordID = errors.New("payload has no record_id")

// RelayConfig tunes how the relay drains the outbox.
type RelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	ClaimTTL    time.Duration
	MaxAttempts int
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	return c
}

// CRMStatusRelay publishes crm.delivery_status.updated messages written by
// webhook ingest, keyed by CRM record so one record's updates stay ordered.
type CRMStatusRelay struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	cfg       RelayConfig
	nowFn     func() time.Time
}

func NewCRMStatusRelay(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, cfg RelayConfig) *CRMStatusRelay {
	return &CRMStatusRelay{
		logger:    logger.With("module", "events.crm_status_relay", "layer", "adapter"),
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *CRMStatusRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.ProcessOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "crm status relay pass failed",
				"operation", "relay_pass",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayReport summarises one pass.
type RelayReport struct {
	Claimed      int
	Published    int
	Retrying     int
	Deferred     int
	DeadLettered int
}

// ProcessOnce claims one batch and relays it. Once a record's update fails,
// later updates for the same record in the batch are left claimed so they
// are retried after it rather than overtaking it.
func (r *CRMStatusRelay) ProcessOnce(ctx context.Context) (RelayReport, error) {
	var report RelayReport
	claimToken := uuid.NewString()
	rows, err := r.outbox.ClaimUnpublished(ctx, r.cfg.BatchSize, claimToken, r.nowFn().Add(r.cfg.ClaimTTL))
	if err != nil {
		return report, fmt.Errorf("claim outbox rows: %w", err)
	}
	report.Claimed = len(rows)

	blocked := map[string]struct{}{}
	for _, row := range rows {
		if row.EventType != domain.EventCRMDeliveryStatusUpdated {
			r.deadLetter(ctx, row, claimToken, deadLetterUnsupported, domain.CRMDeliveryStatusMessage{}, fmt.Errorf("event type %q", row.EventType))
			report.DeadLettered++
			continue
		}
		msg, err := decodeStatusMessage(row.Payload)
		if err != nil {
			r.deadLetter(ctx, row, claimToken, deadLetterMalformed, msg, err)
			report.DeadLettered++
			continue
		}
		if _, ok := blocked[msg.RecordID]; ok {
			report.Deferred++
			continue
		}

		if err := r.publisher.Publish(ctx, row.EventType, msg.RecordID, row.Payload); err != nil {
			blocked[msg.RecordID] = struct{}{}
			if row.RetryCount+1 >= r.cfg.MaxAttempts {
				r.deadLetter(ctx, row, claimToken, deadLetterExhausted, msg, err)
				report.DeadLettered++
				continue
			}
			metrics.OutboxPublished.WithLabelValues("failed").Inc()
			r.logger.WarnContext(ctx, "crm status update publish failed; will retry",
				"operation", "relay_publish",
				"outcome", "retry",
				"outbox_id", row.OutboxID.String(),
				"record_id", msg.RecordID,
				"crm_event_id", msg.EventID,
				"attempt", row.RetryCount+1,
				"error", err,
			)
			r.mark(ctx, "mark_failed", row, r.outbox.MarkFailed(ctx, row.OutboxID, claimToken, err.Error(), r.nowFn()))
			report.Retrying++
			continue
		}

		metrics.OutboxPublished.WithLabelValues("published").Inc()
		r.mark(ctx, "mark_published", row, r.outbox.MarkPublished(ctx, row.OutboxID, claimToken, r.nowFn()))
		report.Published++
	}

	if report.Claimed > 0 {
		r.logger.InfoContext(ctx, "crm status relay pass completed",
			"operation", "relay_pass",
			"outcome", "success",
			"claimed", report.Claimed,
			"published", report.Published,
			"retrying", report.Retrying,
			"deferred", report.Deferred,
			"dead_lettered", report.DeadLettered,
		)
	}
	return report, nil
}

func decodeStatusMessage(payload []byte) (domain.CRMDeliveryStatusMessage, error) {
	var msg domain.CRMDeliveryStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.RecordID == "" {
		return msg, errMissingRecordID
	}
	return msg, nil
}

// deadLetter parks a CRM update that will never be delivered so an operator
// can replay it against the record it names.
func (r *CRMStatusRelay) deadLetter(ctx context.Context, row ports.OutboxRecord, claimToken, reason string, msg domain.CRMDeliveryStatusMessage, cause error) {
	metrics.OutboxPublished.WithLabelValues("dead_lettered").Inc()
	metrics.CRMDeadLetters.WithLabelValues(reason).Inc()
	r.logger.ErrorContext(ctx, "crm status update dead-lettered",
		"operation", "relay_dead_letter",
		"outcome", "failure",
		"reason", reason,
		"outbox_id", row.OutboxID.String(),
		"record_id", msg.RecordID,
		"crm_event_id", msg.EventID,
		"delivery_status", msg.Status,
		"attempts", row.RetryCount+1,
		"error", cause,
	)
	r.mark(ctx, "mark_dead_lettered", row, r.outbox.MarkDeadLettered(ctx, row.OutboxID, claimToken, reason+": "+cause.Error(), r.nowFn()))
}

func (r *CRMStatusRelay) mark(ctx context.Context, operation string, row ports.OutboxRecord, err error) {
	if err == nil {
		return
	}
	r.logger.WarnContext(ctx, "outbox row state not saved",
		"operation", operation,
		"outcome", "failure",
		"outbox_id", row.OutboxID.String(),
		"error", err,
	)
}

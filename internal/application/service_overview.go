package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
)

// Overview builds the admin dashboard snapshot. Every backing read runs
// concurrently and the first failure cancels the rest; the caller gets
// either a complete snapshot or domain.ErrOverviewUnavailable.
func (s *Service) Overview(ctx context.Context, caller domain.AccountContext) (domain.OverviewSnapshot, error) {
	if caller.Role != domain.RoleAdmin {
		return domain.OverviewSnapshot{}, domain.ErrForbidden
	}
	now := s.nowFn()

	var (
		byRole        map[domain.Role]int64
		activeCount   int64
		acceptedCount int64
		crmStatus     domain.CRMSyncStatus
		outboxPending int64
		site          domain.SiteCounts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.accounts.CountByRole(gctx)
		if err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		byRole = counts
		return nil
	})
	g.Go(func() error {
		n, err := s.sessions.CountActive(gctx, now)
		if err != nil {
			return fmt.Errorf("count active sessions: %w", err)
		}
		activeCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.webhooks.CountAccepted(gctx)
		if err != nil {
			return fmt.Errorf("count webhook events: %w", err)
		}
		acceptedCount = n
		return nil
	})
	g.Go(func() error {
		status, err := s.crm.CRMSyncStatus(gctx)
		if err != nil {
			return fmt.Errorf("crm sync status: %w", err)
		}
		crmStatus = status
		return nil
	})
	g.Go(func() error {
		counts, err := s.siteCounts.SiteCounts(gctx)
		if err != nil {
			return fmt.Errorf("site counts: %w", err)
		}
		site = counts
		return nil
	})
	if s.outbox != nil {
		g.Go(func() error {
			n, err := s.outbox.CountPending(gctx)
			if err != nil {
				return fmt.Errorf("count pending outbox: %w", err)
			}
			outboxPending = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.AdminOverviews.WithLabelValues("unavailable").Inc()
		appLogger().ErrorContext(ctx, "admin overview unavailable",
			"operation", "admin_overview",
			"outcome", "failure",
			"account_id", caller.AccountID.String(),
			"error", err,
		)
		return domain.OverviewSnapshot{}, fmt.Errorf("%w: %v", domain.ErrOverviewUnavailable, err)
	}

	if crmStatus.ByStatus == nil {
		crmStatus.ByStatus = map[string]int64{}
	}
	if crmStatus.State == "" {
		crmStatus.State = domain.CRMSyncIdle
	}
	var accountTotal int64
	for _, n := range byRole {
		accountTotal += n
	}
	counts := map[string]int64{
		domain.MetricAccounts:          accountTotal,
		domain.MetricAdminAccounts:     byRole[domain.RoleAdmin],
		domain.MetricActiveSessions:    activeCount,
		domain.MetricWebhookEvents:     acceptedCount,
		domain.MetricCRMRecordsTracked: crmStatus.TrackedRecords,
		domain.MetricIncidents:         site.Incidents,
		domain.MetricOpenIncidents:     site.OpenIncidents,
		domain.MetricAlerts:            site.Alerts,
		domain.MetricCriticalAlerts:    site.CriticalAlerts,
		domain.MetricDemoIntakes:       site.DemoIntakes,
	}
	if s.outbox != nil {
		counts[domain.MetricOutboxPending] = outboxPending
	}

	metrics.AdminOverviews.WithLabelValues("success").Inc()
	return domain.OverviewSnapshot{
		GeneratedAt:   now,
		Counts:        counts,
		CRMSyncStatus: crmStatus,
	}, nil
}

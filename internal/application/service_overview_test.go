package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cyberdyne10/huntress/internal/domain"
)

func TestOverviewAggregatesSiteAndCRMState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := f.login(t, "admin@huntress.local", "ChangeMe!123")

	for _, body := range []string{
		`{"eventId":"evt-1","recordId":"contact-1","status":"delivered"}`,
		`{"eventId":"evt-2","recordId":"contact-2","status":"bounced"}`,
	} {
		payload, sig := signedDelivery(body)
		if _, err := f.service.ReceiveWebhook(ctx, payload, sig); err != nil {
			t.Fatalf("receive webhook failed: %v", err)
		}
	}

	if _, err := f.service.SubmitDemoIntake(ctx, validDemoRequest()); err != nil {
		t.Fatalf("submit demo intake failed: %v", err)
	}

	caller, err := f.service.Authorize(ctx, admin.Token, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	snap, err := f.service.Overview(ctx, caller)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	want := map[string]int64{
		domain.MetricAccounts:          2,
		domain.MetricAdminAccounts:     1,
		domain.MetricActiveSessions:    1,
		domain.MetricWebhookEvents:     2,
		domain.MetricCRMRecordsTracked: 2,
		domain.MetricOutboxPending:     2,
		domain.MetricIncidents:         2,
		domain.MetricOpenIncidents:     2,
		domain.MetricAlerts:            2,
		domain.MetricCriticalAlerts:    1,
		domain.MetricDemoIntakes:       1,
	}
	for name, value := range want {
		if got := snap.Counts[name]; got != value {
			t.Fatalf("count %s = %d, want %d", name, got, value)
		}
	}
	if snap.CRMSyncStatus.State != domain.CRMSyncActive {
		t.Fatalf("expected synced crm state, got %s", snap.CRMSyncStatus.State)
	}
	if snap.CRMSyncStatus.ByStatus["bounced"] != 1 || snap.CRMSyncStatus.ByStatus["delivered"] != 1 {
		t.Fatalf("unexpected status breakdown: %v", snap.CRMSyncStatus.ByStatus)
	}
	if !snap.GeneratedAt.Equal(f.clock.Now()) {
		t.Fatalf("expected generatedAt %s, got %s", f.clock.Now(), snap.GeneratedAt)
	}
}

func TestOverviewIsIdleBeforeAnyDelivery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	snap, err := f.service.Overview(context.Background(), domain.AccountContext{Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if snap.CRMSyncStatus.State != domain.CRMSyncIdle || snap.CRMSyncStatus.LastEventAt != nil {
		t.Fatalf("expected idle crm state, got %+v", snap.CRMSyncStatus)
	}
}

func TestOverviewFailsWholeWhenAnyReadFails(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		opt  fixtureOption
	}{
		{name: "crm sync state", opt: withCRMReader(failingCRMReader{})},
		{name: "account counts", opt: withFailingAccountCounts()},
		{name: "site counts", opt: withSiteMetrics(failingSiteStore{})},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, tc.opt)
			snap, err := f.service.Overview(context.Background(), domain.AccountContext{Role: domain.RoleAdmin})
			if !errors.Is(err, domain.ErrOverviewUnavailable) {
				t.Fatalf("expected overview unavailable, got %v", err)
			}
			if snap.Counts != nil {
				t.Fatalf("expected no partial snapshot, got %+v", snap)
			}
		})
	}
}

func TestOverviewRejectsNonAdminCaller(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.service.Overview(context.Background(), domain.AccountContext{Role: domain.RoleViewer}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cyberdyne10/huntress/internal/domain"
)

// SiteRepository holds the public feeds and demo requests in process memory.
type SiteRepository struct {
	mu        sync.RWMutex
	incidents []domain.Incident
	alerts    []domain.Alert
	intakes   []domain.DemoIntake
}

// NewSiteRepository starts with the same feed rows the postgres migration seeds.
func NewSiteRepository() *SiteRepository {
	return NewSiteRepositoryWith(defaultIncidents(), defaultAlerts())
}

func NewSiteRepositoryWith(incidents []domain.Incident, alerts []domain.Alert) *SiteRepository {
	return &SiteRepository{
		incidents: append([]domain.Incident(nil), incidents...),
		alerts:    append([]domain.Alert(nil), alerts...),
	}
}

func (r *SiteRepository) ListIncidents(_ context.Context) ([]domain.Incident, error) {
	r.mu.RLock()
	out := append([]domain.Incident(nil), r.incidents...)
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

func (r *SiteRepository) ListAlerts(_ context.Context) ([]domain.Alert, error) {
	r.mu.RLock()
	out := append([]domain.Alert(nil), r.alerts...)
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *SiteRepository) CreateDemoIntake(_ context.Context, intake domain.DemoIntake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intakes = append(r.intakes, intake)
	return nil
}

// DemoIntakes returns a copy of every stored demo request.
func (r *SiteRepository) DemoIntakes() []domain.DemoIntake {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.DemoIntake(nil), r.intakes...)
}

func (r *SiteRepository) SiteCounts(_ context.Context) (domain.SiteCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := domain.SiteCounts{
		Incidents:   int64(len(r.incidents)),
		Alerts:      int64(len(r.alerts)),
		DemoIntakes: int64(len(r.intakes)),
	}
	for _, inc := range r.incidents {
		if inc.Open() {
			counts.OpenIncidents++
		}
	}
	for _, alert := range r.alerts {
		if alert.Level == domain.AlertLevelCritical {
			counts.CriticalAlerts++
		}
	}
	return counts, nil
}

func defaultIncidents() []domain.Incident {
	return []domain.Incident{
		{
			ID:            "INC-1001",
			Severity:      "high",
			Status:        "investigating",
			Title:         "Suspicious PowerShell activity on finance workstation",
			AffectedAsset: "FIN-WS-014",
			DetectedAt:    time.Date(2026, 2, 9, 10, 15, 0, 0, time.UTC),
		},
		{
			ID:            "INC-1002",
			Severity:      "medium",
			Status:        "contained",
			Title:         "Repeated failed MFA attempts",
			AffectedAsset: "AzureAD Tenant",
			DetectedAt:    time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		},
	}
}

func defaultAlerts() []domain.Alert {
	return []domain.Alert{
		{ID: "ALT-2201", Level: "critical", Source: "EDR", Summary: "Ransomware canary triggered", Timestamp: time.Date(2026, 2, 10, 7, 10, 0, 0, time.UTC)},
		{ID: "ALT-2202", Level: "low", Source: "ITDR", Summary: "Impossible travel login detected", Timestamp: time.Date(2026, 2, 10, 12, 45, 0, 0, time.UTC)},
	}
}

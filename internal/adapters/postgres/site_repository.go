package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/cyberdyne10/huntress/internal/domain"
)

type incidentModel struct {
	IncidentID    string    `gorm:"column:incident_id;primaryKey"`
	Severity      string    `gorm:"column:severity"`
	Status        string    `gorm:"column:status"`
	Title         string    `gorm:"column:title"`
	AffectedAsset string    `gorm:"column:affected_asset"`
	DetectedAt    time.Time `gorm:"column:detected_at"`
}

func (incidentModel) TableName() string { return "site_incidents" }

type alertModel struct {
	AlertID     string    `gorm:"column:alert_id;primaryKey"`
	Level       string    `gorm:"column:level"`
	Source      string    `gorm:"column:source"`
	Summary     string    `gorm:"column:summary"`
	TriggeredAt time.Time `gorm:"column:triggered_at"`
}

func (alertModel) TableName() string { return "site_alerts" }

type demoIntakeModel struct {
	IntakeID  uuid.UUID `gorm:"column:intake_id;type:uuid;primaryKey"`
	FullName  string    `gorm:"column:full_name"`
	Email     string    `gorm:"column:email"`
	Company   string    `gorm:"column:company"`
	Size      string    `gorm:"column:size"`
	Message   string    `gorm:"column:message"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (demoIntakeModel) TableName() string { return "demo_intakes" }

// SiteRepository backs the public feeds, demo intake and the site half of
// the admin overview.
type SiteRepository struct {
	db *gorm.DB
}

func (r *SiteRepository) ListIncidents(ctx context.Context) ([]domain.Incident, error) {
	var rows []incidentModel
	if err := r.db.WithContext(ctx).Order("detected_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Incident, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Incident{
			ID:            row.IncidentID,
			Severity:      row.Severity,
			Status:        row.Status,
			Title:         row.Title,
			AffectedAsset: row.AffectedAsset,
			DetectedAt:    row.DetectedAt.UTC(),
		})
	}
	return out, nil
}

func (r *SiteRepository) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	var rows []alertModel
	if err := r.db.WithContext(ctx).Order("triggered_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Alert, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Alert{
			ID:        row.AlertID,
			Level:     row.Level,
			Source:    row.Source,
			Summary:   row.Summary,
			Timestamp: row.TriggeredAt.UTC(),
		})
	}
	return out, nil
}

func (r *SiteRepository) CreateDemoIntake(ctx context.Context, intake domain.DemoIntake) error {
	return r.db.WithContext(ctx).Create(&demoIntakeModel{
		IntakeID:  intake.ID,
		FullName:  intake.FullName,
		Email:     intake.Email,
		Company:   intake.Company,
		Size:      intake.Size,
		Message:   intake.Message,
		CreatedAt: intake.CreatedAt,
	}).Error
}

// SiteCounts runs its three aggregate queries concurrently.
func (r *SiteRepository) SiteCounts(ctx context.Context) (domain.SiteCounts, error) {
	var out domain.SiteCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var row struct {
			Total     int64
			OpenTotal int64
		}
		err := r.db.WithContext(gctx).Model(&incidentModel{}).
			Select("count(*) AS total, count(*) FILTER (WHERE status NOT IN ('resolved', 'closed')) AS open_total").
			Scan(&row).Error
		out.Incidents, out.OpenIncidents = row.Total, row.OpenTotal
		return err
	})
	g.Go(func() error {
		var row struct {
			Total    int64
			Critical int64
		}
		err := r.db.WithContext(gctx).Model(&alertModel{}).
			Select("count(*) AS total, count(*) FILTER (WHERE level = ?) AS critical", domain.AlertLevelCritical).
			Scan(&row).Error
		out.Alerts, out.CriticalAlerts = row.Total, row.Critical
		return err
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&demoIntakeModel{}).Count(&out.DemoIntakes).Error
	})
	if err := g.Wait(); err != nil {
		return domain.SiteCounts{}, err
	}
	return out, nil
}

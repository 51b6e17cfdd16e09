package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
)

func (s *Service) ListIncidents(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := s.site.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

func (s *Service) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	alerts, err := s.site.ListAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// SubmitDemoIntake validates and stores a demo request. Rejections return a
// *domain.ValidationError listing every bad field.
func (s *Service) SubmitDemoIntake(ctx context.Context, req domain.DemoIntakeRequest) (domain.DemoIntake, error) {
	intake, err := domain.NewDemoIntake(req, s.nowFn())
	if err != nil {
		metrics.DemoIntakes.WithLabelValues("rejected").Inc()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			appLogger().InfoContext(ctx, "demo intake rejected",
				"operation", "submit_demo_intake",
				"outcome", "rejected",
				"issues", len(verr.Issues),
			)
		}
		return domain.DemoIntake{}, err
	}
	if err := s.site.CreateDemoIntake(ctx, intake); err != nil {
		metrics.DemoIntakes.WithLabelValues("failure").Inc()
		appLogger().ErrorContext(ctx, "demo intake store failed",
			"operation", "submit_demo_intake",
			"outcome", "failure",
			"intake_id", intake.ID.String(),
			"error", err,
		)
		return domain.DemoIntake{}, fmt.Errorf("store demo intake: %w", err)
	}

	metrics.DemoIntakes.WithLabelValues("accepted").Inc()
	appLogger().InfoContext(ctx, "demo intake stored",
		"operation", "submit_demo_intake",
		"outcome", "success",
		"intake_id", intake.ID.String(),
		"size", intake.Size,
	)
	return intake, nil
}

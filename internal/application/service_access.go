package application

import (
	"context"
	"errors"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
)

// Authorize resolves the caller behind token and checks it holds required.
// Roles compare by equality only.
func (s *Service) Authorize(ctx context.Context, token string, required domain.Role) (domain.AccountContext, error) {
	session, err := s.authenticate(ctx, token)
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrUnauthenticated) {
			outcome = "unauthenticated"
		}
		metrics.AccessDecisions.WithLabelValues(required.String(), outcome).Inc()
		return domain.AccountContext{}, err
	}
	if session.Role != required {
		metrics.AccessDecisions.WithLabelValues(required.String(), "forbidden").Inc()
		appLogger().WarnContext(ctx, "access denied",
			"operation", "authorize",
			"outcome", "failure",
			"account_id", session.AccountID.String(),
			"role", session.Role.String(),
			"required_role", required.String(),
		)
		return domain.AccountContext{}, domain.ErrForbidden
	}
	metrics.AccessDecisions.WithLabelValues(required.String(), "allowed").Inc()
	return domain.AccountContext{AccountID: session.AccountID, Role: session.Role}, nil
}

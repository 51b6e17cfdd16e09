package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cyberdyne10/huntress/internal/application"
	"github.com/cyberdyne10/huntress/internal/domain"
)

// AccountProvisioner is the application operation seeding needs.
type AccountProvisioner interface {
	ProvisionAccount(ctx context.Context, req application.ProvisionAccountRequest) (domain.Account, error)
}

// SeedAccounts provisions the seed admin and any accounts listed in the
// config file. Accounts that already exist are left untouched.
func SeedAccounts(ctx context.Context, logger *slog.Logger, provisioner AccountProvisioner, cfg Config) error {
	reqs := make([]application.ProvisionAccountRequest, 0, len(cfg.Accounts)+1)
	if cfg.SeedAdminLogin != "" && cfg.SeedAdminPassword != "" {
		reqs = append(reqs, application.ProvisionAccountRequest{
			LoginName: cfg.SeedAdminLogin,
			Password:  cfg.SeedAdminPassword,
			Role:      domain.RoleAdmin,
		})
	}
	for _, seed := range cfg.Accounts {
		role, err := domain.ParseRole(seed.Role)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", seed.LoginName, err)
		}
		reqs = append(reqs, application.ProvisionAccountRequest{
			LoginName:    seed.LoginName,
			PasswordHash: seed.PasswordHash,
			Role:         role,
		})
	}

	for _, req := range reqs {
		_, err := provisioner.ProvisionAccount(ctx, req)
		switch {
		case err == nil:
			logger.InfoContext(ctx, "seed account created",
				"module", "bootstrap",
				"operation", "seed_account",
				"outcome", "success",
				"login_name", domain.NormalizeLoginName(req.LoginName),
				"role", req.Role.String(),
			)
		case errors.Is(err, domain.ErrConflict):
			logger.DebugContext(ctx, "seed account already present",
				"module", "bootstrap",
				"operation", "seed_account",
				"outcome", "skipped",
				"login_name", domain.NormalizeLoginName(req.LoginName),
			)
		default:
			return fmt.Errorf("seed account %s: %w", req.LoginName, err)
		}
	}
	return nil
}

package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
)

// Login verifies credentials and mints a session. Unknown login names and
// wrong passwords both return domain.ErrInvalidCredentials after one hash comparison.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	loginName := domain.NormalizeLoginName(req.LoginName)

	account, err := s.accounts.FindByLoginName(ctx, loginName)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return LoginResult{}, fmt.Errorf("find account: %w", err)
	}

	hash := s.dummyHash
	if found {
		hash = account.PasswordHash
	}
	compareErr := s.hasher.Compare(hash, req.Password)
	if !found || compareErr != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		appLogger().WarnContext(ctx, "login rejected",
			"operation", "login",
			"outcome", "failure",
		)
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	if !s.hasher.IsCurrent(account.PasswordHash) {
		s.upgradePasswordHash(ctx, account, req.Password)
	}

	session, err := s.CreateSession(ctx, account.AccountID, account.Role)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	appLogger().InfoContext(ctx, "login succeeded",
		"operation", "login",
		"outcome", "success",
		"account_id", account.AccountID.String(),
		"role", account.Role.String(),
	)
	return LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// WhoAmI returns the identity behind a live session token.
func (s *Service) WhoAmI(ctx context.Context, token string) (WhoAmIResult, error) {
	session, err := s.authenticate(ctx, token)
	if err != nil {
		return WhoAmIResult{}, err
	}
	return WhoAmIResult{AccountID: session.AccountID, Role: session.Role}, nil
}

// Logout revokes the presented session.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.RevokeSession(ctx, token)
}

// ProvisionAccount creates an operator account. Either Password or a
// precomputed PasswordHash must be supplied.
func (s *Service) ProvisionAccount(ctx context.Context, req ProvisionAccountRequest) (domain.Account, error) {
	loginName := domain.NormalizeLoginName(req.LoginName)
	if loginName == "" {
		return domain.Account{}, fmt.Errorf("%w: login name is required", domain.ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return domain.Account{}, fmt.Errorf("%w: %q", domain.ErrUnknownRole, req.Role)
	}

	hash := req.PasswordHash
	if hash != "" && !s.hasher.IsCurrent(hash) {
		return domain.Account{}, fmt.Errorf("%w: password hash does not use the active scheme and cost", domain.ErrInvalidInput)
	}
	if hash == "" {
		if req.Password == "" {
			return domain.Account{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
		}
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return domain.Account{}, fmt.Errorf("hash password: %w", err)
		}
		hash = hashed
	}

	account := domain.Account{
		AccountID:    uuid.New(),
		LoginName:    loginName,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    s.nowFn(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return domain.Account{}, err
	}
	appLogger().InfoContext(ctx, "account provisioned",
		"operation", "provision_account",
		"outcome", "success",
		"account_id", account.AccountID.String(),
		"role", account.Role.String(),
	)
	return account, nil
}

// upgradePasswordHash replaces a hash from another scheme or cost with one
// from the active hasher. Every stored hash must cost the same to verify as
// the dummy hash used for unknown login names.
func (s *Service) upgradePasswordHash(ctx context.Context, account domain.Account, password string) {
	hashed, err := s.hasher.Hash(password)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, account.LoginName, hashed)
	}
	if err != nil {
		appLogger().WarnContext(ctx, "password hash upgrade failed",
			"operation", "login",
			"outcome", "failure",
			"account_id", account.AccountID.String(),
			"error", err,
		)
		return
	}
	appLogger().InfoContext(ctx, "password hash upgraded",
		"operation", "login",
		"outcome", "success",
		"account_id", account.AccountID.String(),
	)
}

// authenticate maps every session lookup failure to domain.ErrUnauthenticated
// except backing store errors, which are returned wrapped.
func (s *Service) authenticate(ctx context.Context, token string) (domain.Session, error) {
	session, err := s.ValidateSession(ctx, token)
	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionExpired):
		return domain.Session{}, domain.ErrUnauthenticated
	default:
		return domain.Session{}, fmt.Errorf("validate session: %w", err)
	}
}

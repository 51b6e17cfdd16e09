package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/metrics"
	"github.com/cyberdyne10/huntress/internal/ports"
)

const maxTokenAttempts = 3

// CreateSession mints a session for an already-authenticated account.
func (s *Service) CreateSession(ctx context.Context, accountID uuid.UUID, role domain.Role) (domain.Session, error) {
	if accountID == uuid.Nil || !role.Valid() {
		return domain.Session{}, domain.ErrInvalidInput
	}
	now := s.nowFn()
	record := ports.SessionRecord{
		AccountID: accountID,
		Role:      role.String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.tokens.NewToken()
		if err != nil {
			return domain.Session{}, fmt.Errorf("generate session token: %w", err)
		}
		err = s.sessions.Put(ctx, domain.TokenDigest(token), record)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.Session{}, fmt.Errorf("store session: %w", err)
		}
		return domain.Session{
			Token:     token,
			AccountID: record.AccountID,
			Role:      role,
			IssuedAt:  record.IssuedAt,
			ExpiresAt: record.ExpiresAt,
		}, nil
	}
	return domain.Session{}, fmt.Errorf("store session: %w", domain.ErrConflict)
}

// ValidateSession resolves a token to its live session. Expired sessions are
// removed on sight and reported as domain.ErrSessionExpired; unknown tokens
// yield domain.ErrNotFound.
func (s *Service) ValidateSession(ctx context.Context, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, domain.ErrNotFound
	}
	digest := domain.TokenDigest(token)
	record, err := s.sessions.Get(ctx, digest)
	if err != nil {
		return domain.Session{}, err
	}

	role, err := domain.ParseRole(record.Role)
	if err != nil {
		if delErr := s.sessions.Delete(ctx, digest); delErr != nil {
			appLogger().WarnContext(ctx, "session with unknown role not evicted",
				"operation", "validate_session",
				"outcome", "failure",
				"role", record.Role,
				"error", delErr,
			)
		}
		return domain.Session{}, domain.ErrNotFound
	}
	session := domain.Session{
		Token:     token,
		AccountID: record.AccountID,
		Role:      role,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
	}
	if session.ExpiredAt(s.nowFn()) {
		if err := s.sessions.Delete(ctx, digest); err != nil {
			appLogger().WarnContext(ctx, "expired session eviction failed",
				"operation", "validate_session",
				"outcome", "failure",
				"error", err,
			)
		} else {
			metrics.SessionsRevoked.Inc()
		}
		return domain.Session{}, domain.ErrSessionExpired
	}
	return session, nil
}

// RevokeSession removes a session. Revoking an unknown or already revoked token succeeds.
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, domain.TokenDigest(token)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	metrics.SessionsRevoked.Inc()
	return nil
}

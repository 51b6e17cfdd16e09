package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

// SessionStore keeps sessions in the sessions table so they survive restarts.
// Expired rows are removed lazily when they are next looked up.
type SessionStore struct {
	db *gorm.DB
}

func (s *SessionStore) Put(ctx context.Context, digest string, record ports.SessionRecord) error {
	row := sessionModel{
		TokenDigest: digest,
		AccountID:   record.AccountID,
		Role:        record.Role,
		IssuedAt:    record.IssuedAt,
		ExpiresAt:   record.ExpiresAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, digest string) (ports.SessionRecord, error) {
	var row sessionModel
	if err := s.db.WithContext(ctx).Where("token_digest = ?", digest).Take(&row).Error; err != nil {
		if isNotFound(err) {
			return ports.SessionRecord{}, domain.ErrNotFound
		}
		return ports.SessionRecord{}, err
	}
	return toSessionRecord(row), nil
}

func (s *SessionStore) Delete(ctx context.Context, digest string) error {
	return s.db.WithContext(ctx).Where("token_digest = ?", digest).Delete(&sessionModel{}).Error
}

func (s *SessionStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&sessionModel{}).Where("expires_at > ?", now).Count(&n).Error
	return n, err
}

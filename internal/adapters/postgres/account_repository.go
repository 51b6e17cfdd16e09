package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cyberdyne10/huntress/internal/domain"
)

type AccountRepository struct {
	db *gorm.DB
}

func (r *AccountRepository) FindByLoginName(ctx context.Context, loginName string) (domain.Account, error) {
	var row accountModel
	if err := r.db.WithContext(ctx).Where("login_name = ?", loginName).Take(&row).Error; err != nil {
		if isNotFound(err) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return toDomainAccount(row)
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	row := accountModel{
		AccountID:    account.AccountID,
		LoginName:    account.LoginName,
		PasswordHash: account.PasswordHash,
		Role:         account.Role.String(),
		CreatedAt:    account.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, loginName, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("login_name = ?", loginName).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	var rows []struct {
		Role  string
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Select("role, count(*) AS total").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.Role]int64, len(rows))
	for _, row := range rows {
		out[domain.Role(row.Role)] = row.Total
	}
	return out, nil
}

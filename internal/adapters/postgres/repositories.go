package postgres

import (
	"errors"

	"gorm.io/gorm"
)

type Repositories struct {
	Accounts *AccountRepository
	Sessions *SessionStore
	Webhooks *WebhookRepository
	CRM      *CRMRepository
	Outbox   *OutboxRepository
	Site     *SiteRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Accounts: &AccountRepository{db: db},
		Sessions: &SessionStore{db: db},
		Webhooks: &WebhookRepository{db: db},
		CRM:      &CRMRepository{db: db},
		Outbox:   &OutboxRepository{db: db},
		Site:     &SiteRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

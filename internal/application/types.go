package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/cyberdyne10/huntress/internal/domain"
)

type LoginRequest struct {
	LoginName string `json:"loginName"`
	Password  string `json:"password"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type WhoAmIResult struct {
	AccountID uuid.UUID   `json:"accountId"`
	Role      domain.Role `json:"role"`
}

type ProvisionAccountRequest struct {
	LoginName    string
	Password     string
	PasswordHash string
	Role         domain.Role
}

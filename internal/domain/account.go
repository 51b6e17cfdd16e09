package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of operator roles. Roles are flat: admin does not
// imply viewer and no inheritance is evaluated anywhere.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// ParseRole maps a stored or configured role name onto the closed enum.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleViewer:
		return RoleViewer, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

func (r Role) String() string { return string(r) }

// Account is an operator record held by the credential store.
type Account struct {
	AccountID    uuid.UUID
	LoginName    string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NormalizeLoginName trims and lower-cases a login name before lookup or storage.
func NormalizeLoginName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

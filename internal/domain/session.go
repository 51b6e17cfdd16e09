package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Session is a live login session. Token is the bearer value handed to the
// client; stores only ever persist TokenDigest(Token).
type Session struct {
	Token     string
	AccountID uuid.UUID
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the session is no longer valid at now.
// The boundary is inclusive: a session whose expiresAt equals now is expired.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AccountContext is the resolved caller identity handed to protected operations.
type AccountContext struct {
	AccountID uuid.UUID
	Role      Role
}

// TokenDigest returns the hex sha256 of a bearer token, used as the storage key.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

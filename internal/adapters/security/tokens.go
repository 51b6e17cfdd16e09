package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultTokenBytes = 32

// RandomTokenGenerator mints opaque URL-safe bearer tokens from crypto/rand.
type RandomTokenGenerator struct {
	size int
}

func NewRandomTokenGenerator() *RandomTokenGenerator {
	return &RandomTokenGenerator{size: defaultTokenBytes}
}

func (g *RandomTokenGenerator) NewToken() (string, error) {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

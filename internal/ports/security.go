package ports

// PasswordHasher hashes and verifies operator passwords.
// Compare returns nil only on a match. IsCurrent reports whether hash was
// produced with the hasher's own scheme and cost, so that verifying it costs
// the same as verifying a fresh Hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	IsCurrent(hash string) bool
}

// TokenGenerator mints opaque bearer tokens.
type TokenGenerator interface {
	NewToken() (string, error)
}

// SignatureVerifier checks a vendor signature header against the raw request body.
type SignatureVerifier interface {
	Verify(payload []byte, signatureHeader string) error
}

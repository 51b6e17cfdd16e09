package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/cyberdyne10/huntress/internal/domain"
)

const signaturePrefix = "sha256="

var errNoWebhookSecret = errors.New("webhook secret is not configured")

// SecretSource yields the currently accepted webhook secrets. The first entry
// is the active secret; any further entries are still honoured during rotation.
type SecretSource interface {
	Secrets() [][]byte
}

// HMACVerifier validates `X-CRM-Signature` headers of the form
// `sha256=<hex>` (the prefix is optional) over the raw request body.
type HMACVerifier struct {
	source SecretSource
}

func NewHMACVerifier(source SecretSource) *HMACVerifier {
	return &HMACVerifier{source: source}
}

func (v *HMACVerifier) Verify(payload []byte, signatureHeader string) error {
	provided, err := decodeSignature(signatureHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	secrets := v.source.Secrets()
	if len(secrets) == 0 {
		return errors.Join(domain.ErrInvalidSignature, errNoWebhookSecret)
	}
	for _, secret := range secrets {
		if len(secret) == 0 {
			continue
		}
		if hmac.Equal(provided, SignPayload(secret, payload)) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}

// SignPayload computes the raw HMAC-SHA256 of payload.
func SignPayload(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader renders the header value a vendor would send for payload.
func SignatureHeader(secret, payload []byte) string {
	return signaturePrefix + hex.EncodeToString(SignPayload(secret, payload))
}

func decodeSignature(header string) ([]byte, error) {
	raw := strings.TrimSpace(header)
	if len(raw) >= len(signaturePrefix) && strings.EqualFold(raw[:len(signaturePrefix)], signaturePrefix) {
		raw = raw[len(signaturePrefix):]
	}
	if raw == "" {
		return nil, errors.New("empty signature")
	}
	sig, err := hex.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(sig) != sha256.Size {
		return nil, errors.New("signature length mismatch")
	}
	return sig, nil
}

// StaticSecrets is a SecretSource over fixed values.
type StaticSecrets [][]byte

func (s StaticSecrets) Secrets() [][]byte { return s }

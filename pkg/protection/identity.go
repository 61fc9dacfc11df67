package protection

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Dimension is one independently rate-limited identifier namespace.
type Dimension string

const (
	DimensionIP       Dimension = "ip"
	DimensionName     Dimension = "name"
	DimensionEmail    Dimension = "email"
	DimensionIdentity Dimension = "identity"
)

// unknownIP is the sentinel used when the transport layer could not resolve
// a client address. All such requests share one rate-limit bucket.
const unknownIP = "unknown"

var ErrMissingSalt = fmt.Errorf("identifier hash salt is not configured")

// Hasher produces the salted one-way hashes used as rate-limit keys and in
// logs. Raw identifiers never leave this type.
type Hasher struct {
	salt string
}

func NewHasher(salt string) (*Hasher, error) {
	if strings.TrimSpace(salt) == "" {
		return nil, ErrMissingSalt
	}
	return &Hasher{salt: salt}, nil
}

// Identity carries the normalized client address plus the hashed keys for
// every rate-limit dimension of one submission.
type Identity struct {
	ClientIP string // normalized, unhashed; needed for the captcha remoteip field

	IPHash       string
	NameHash     string
	EmailHash    string
	IdentityHash string
}

func (h *Hasher) Identify(clientIP, senderName, senderEmail string) Identity {
	ip := normalizeIP(clientIP)
	name := normalizeField(senderName)
	email := normalizeField(senderEmail)

	return Identity{
		ClientIP:     ip,
		IPHash:       h.Hash(DimensionIP, ip),
		NameHash:     h.Hash(DimensionName, name),
		EmailHash:    h.Hash(DimensionEmail, email),
		IdentityHash: h.Hash(DimensionIdentity, name+"|"+email),
	}
}

// Hash returns the URL-safe base64 encoding (no padding) of
// SHA-256(salt + ":" + namespace + ":" + value).
func (h *Hasher) Hash(namespace Dimension, value string) string {
	sum := sha256.Sum256([]byte(h.salt + ":" + string(namespace) + ":" + value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func normalizeIP(clientIP string) string {
	trimmed := strings.TrimSpace(clientIP)
	if trimmed == "" {
		return unknownIP
	}
	return trimmed
}

func normalizeField(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

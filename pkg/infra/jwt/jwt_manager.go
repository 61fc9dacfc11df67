package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrMissingSecret = errors.New("jwt secret is required")
)

// Manager validates admin bearer tokens. Token issuance belongs to the
// identity service; this service only checks signatures and the role claim.
type (
	Manager interface {
		ValidateToken(tokenString string) (*Claims, error)
	}
	manager struct {
		secret []byte
	}
)

// NewJwtManager fails closed on a blank secret: an HS256 verifier keyed with
// the empty string accepts any token signed with the empty string.
func NewJwtManager(secret string) (Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &manager{
		secret: []byte(secret),
	}, nil
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (m *manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return m.secret, nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

package middleware_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraJwt "github.com/formshield/formshield/pkg/infra/jwt"
	"github.com/formshield/formshield/pkg/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, infraJwt.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func adminApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwtManager, err := infraJwt.NewJwtManager(testSecret)
	require.NoError(t, err)

	app := fiber.New()
	auth := middleware.NewAdminAuthMiddleware(logger, jwtManager)
	app.Get("/admin", auth.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAdminAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected int
	}{
		{
			name:     "missing header",
			header:   "",
			expected: fiber.StatusUnauthorized,
		},
		{
			name:     "not a bearer token",
			header:   "Basic abc123",
			expected: fiber.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			header:   "Bearer not-a-jwt",
			expected: fiber.StatusUnauthorized,
		},
		{
			name:     "expired token",
			header:   "Bearer %s",
			expected: fiber.StatusUnauthorized,
		},
		{
			name:     "wrong role",
			header:   "Bearer %s",
			expected: fiber.StatusForbidden,
		},
		{
			name:     "admin role",
			header:   "Bearer %s",
			expected: fiber.StatusOK,
		},
	}

	app := adminApp(t)
	tokens := map[string]string{
		"expired token": signToken(t, testSecret, "admin", -time.Hour),
		"wrong role":    signToken(t, testSecret, "viewer", time.Hour),
		"admin role":    signToken(t, testSecret, "admin", time.Hour),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
			if tt.header != "" {
				header := tt.header
				if token, ok := tokens[tt.name]; ok {
					header = "Bearer " + token
				}
				req.Header.Set("Authorization", header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expected, resp.StatusCode)
		})
	}
}

func TestAdminAuthMiddleware_RejectsTokenSignedWithOtherSecret(t *testing.T) {
	app := adminApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "admin", time.Hour))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

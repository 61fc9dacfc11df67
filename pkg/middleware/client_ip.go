package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/common"
)

// ipHeaders are checked in order of preference before falling back to the
// connection's remote address.
var ipHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"True-Client-IP",
	"CF-Connecting-IP",
}

type clientIPMiddleware struct {
	logger *logrus.Logger
}

// NewClientIPMiddleware resolves the submitting client's address and
// user-agent once per request and stashes them in request locals, so
// handlers never re-derive them inconsistently.
func NewClientIPMiddleware(logger *logrus.Logger) Middleware {
	return &clientIPMiddleware{logger: logger}
}

func (m *clientIPMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Locals(common.ClientIPContextKey.String(), resolveClientIP(ctx))
		ctx.Locals(common.UserAgentContextKey.String(), ctx.Get(fiber.HeaderUserAgent))
		return ctx.Next()
	}
}

func resolveClientIP(ctx *fiber.Ctx) string {
	for _, header := range ipHeaders {
		value := ctx.Get(header)
		if value == "" {
			continue
		}
		// X-Forwarded-For may carry a chain; the first hop is the client.
		if comma := strings.IndexByte(value, ','); comma >= 0 {
			value = value[:comma]
		}
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ctx.IP()
}

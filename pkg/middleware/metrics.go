package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/infra/prometheus"
)

type metricsMiddleware struct {
	logger *logrus.Logger
}

func NewMetricsMiddleware(logger *logrus.Logger) Middleware {
	return &metricsMiddleware{logger: logger}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		// Route pattern, not the raw path, so metrics cardinality stays flat.
		path := ctx.Route().Path
		method := ctx.Method()

		prometheus.RequestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		prometheus.RequestLatency.WithLabelValues(method, path).
			Observe(float64(time.Since(start).Milliseconds()))

		return err
	}
}

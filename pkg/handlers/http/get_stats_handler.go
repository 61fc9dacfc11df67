package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/infra/stats"
)

type getStatsHandler struct {
	logger *logrus.Logger
	store  stats.Store
}

func NewGetStatsHandler(logger *logrus.Logger, store stats.Store) Handler {
	return &getStatsHandler{
		logger: logger,
		store:  store,
	}
}

func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	snapshot, err := h.store.Snapshot(c.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to read submission stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"outcomes": snapshot})
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/formshield/formshield/pkg/domain/message"
)

type markMessageReadHandler struct {
	logger *logrus.Logger
	repo   message.Repository
}

func NewMarkMessageReadHandler(logger *logrus.Logger, repo message.Repository) Handler {
	return &markMessageReadHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *markMessageReadHandler) Handle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message id"})
	}

	entity, err := h.repo.MarkAsRead(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
		}
		h.logger.WithError(err).Error("failed to mark message as read")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(fiber.StatusOK).JSON(entity)
}

package http

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/formshield/formshield/pkg/domain/message"
)

type deleteMessageHandler struct {
	logger *logrus.Logger
	repo   message.Repository
}

func NewDeleteMessageHandler(logger *logrus.Logger, repo message.Repository) Handler {
	return &deleteMessageHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *deleteMessageHandler) Handle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message id"})
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
		}
		h.logger.WithError(err).Error("failed to delete message")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.SendStatus(http.StatusNoContent)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/domain/message"
)

type listMessagesHandler struct {
	logger *logrus.Logger
	repo   message.Repository
}

func NewListMessagesHandler(logger *logrus.Logger, repo message.Repository) Handler {
	return &listMessagesHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *listMessagesHandler) Handle(c *fiber.Ctx) error {
	messages, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list messages")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(fiber.StatusOK).JSON(messages)
}

package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/domain/message"
)

type listMessagesByReadHandler struct {
	logger *logrus.Logger
	repo   message.Repository
}

func NewListMessagesByReadHandler(logger *logrus.Logger, repo message.Repository) Handler {
	return &listMessagesByReadHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *listMessagesByReadHandler) Handle(c *fiber.Ctx) error {
	isRead, err := strconv.ParseBool(c.Params("isRead"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "isRead must be true or false"})
	}

	messages, err := h.repo.ListByReadStatus(c.Context(), isRead)
	if err != nil {
		h.logger.WithError(err).Error("failed to list messages by read status")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(fiber.StatusOK).JSON(messages)
}

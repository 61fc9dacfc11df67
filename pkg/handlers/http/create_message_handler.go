package http

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/common"
	"github.com/formshield/formshield/pkg/domain/message"
	"github.com/formshield/formshield/pkg/infra/notify"
	"github.com/formshield/formshield/pkg/infra/prometheus"
	"github.com/formshield/formshield/pkg/protection"
)

const (
	maxNameLength    = 120
	maxEmailLength   = 254
	maxSubjectLength = 200
	maxMessageLength = 5000
)

type createMessageRequest struct {
	SenderName   string `json:"sender_name"`
	SenderEmail  string `json:"sender_email"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	Website      string `json:"website"`
	CaptchaToken string `json:"captcha_token"`
}

type createMessageHandler struct {
	logger    *logrus.Logger
	validator *protection.Validator
	repo      message.Repository
	notifier  notify.Notifier
}

func NewCreateMessageHandler(
	logger *logrus.Logger,
	validator *protection.Validator,
	repo message.Repository,
	notifier notify.Notifier,
) Handler {
	return &createMessageHandler{
		logger:    logger,
		validator: validator,
		repo:      repo,
		notifier:  notifier,
	}
}

func (h *createMessageHandler) Handle(c *fiber.Ctx) error {
	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to bind contact message request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := validateCreateMessageRequest(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sub := &protection.Submission{
		SenderName:   req.SenderName,
		SenderEmail:  req.SenderEmail,
		Subject:      req.Subject,
		Message:      req.Message,
		Website:      req.Website,
		CaptchaToken: req.CaptchaToken,
		ClientIP:     localString(c, common.ClientIPContextKey.String()),
		UserAgent:    localString(c, common.UserAgentContextKey.String()),
	}

	if err := h.validator.ValidateSubmission(c.Context(), sub); err != nil {
		var rejection *protection.ValidationError
		if errors.As(err, &rejection) {
			prometheus.SubmissionTotal.WithLabelValues(string(rejection.Kind)).Inc()
			return c.Status(rejection.StatusCode).JSON(fiber.Map{"error": rejection.Message})
		}
		h.logger.WithError(err).Error("failed to validate submission")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	prometheus.SubmissionTotal.WithLabelValues("accepted").Inc()

	now := time.Now()
	entity := &message.Message{
		ID:          uuid.New(),
		SenderName:  sub.SenderName,
		SenderEmail: sub.SenderEmail,
		Subject:     sub.Subject,
		Message:     sub.Message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.Create(c.Context(), entity); err != nil {
		h.logger.WithError(err).Error("failed to store contact message")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	// Notification failures never surface to the submitter.
	if err := h.notifier.SendNewMessageNotification(c.Context(), entity); err != nil {
		h.logger.WithError(err).WithField("message_id", entity.ID).
			Error("failed to send new message notification")
	}

	return c.Status(fiber.StatusCreated).JSON(entity)
}

func validateCreateMessageRequest(req *createMessageRequest) error {
	req.SenderName = strings.TrimSpace(req.SenderName)
	req.SenderEmail = strings.TrimSpace(req.SenderEmail)

	switch {
	case req.SenderName == "":
		return errors.New("sender_name is required")
	case len(req.SenderName) > maxNameLength:
		return errors.New("sender_name is too long")
	case req.SenderEmail == "":
		return errors.New("sender_email is required")
	case len(req.SenderEmail) > maxEmailLength:
		return errors.New("sender_email is too long")
	case strings.TrimSpace(req.Message) == "":
		return errors.New("message is required")
	case len(req.Message) > maxMessageLength:
		return errors.New("message is too long")
	case len(req.Subject) > maxSubjectLength:
		return errors.New("subject is too long")
	}
	if _, err := mail.ParseAddress(req.SenderEmail); err != nil {
		return errors.New("sender_email is not a valid address")
	}
	return nil
}

func localString(c *fiber.Ctx, key string) string {
	if value, ok := c.Locals(key).(string); ok {
		return value
	}
	return ""
}

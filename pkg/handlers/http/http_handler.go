package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Public
	CreateMessageHandler Handler

	// Admin
	ListMessagesHandler       Handler
	GetMessageHandler         Handler
	ListMessagesByReadHandler Handler
	MarkMessageReadHandler    Handler
	DeleteMessageHandler      Handler
	GetStatsHandler           Handler
}

package server

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/config"
	handlers "github.com/formshield/formshield/pkg/handlers/http"
	"github.com/formshield/formshield/pkg/middleware"
)

type (
	ApiServerDI struct {
		MiddlewareTransport middleware.Transport
		HandlerTransport    handlers.HandlerTransport
		Config              *config.Config
		Logger              *logrus.Logger
	}
	ApiServer struct {
		*BaseServer
		middlewareTransport middleware.Transport
		handlerTransport    handlers.HandlerTransport
	}
)

func NewApiServer(di ApiServerDI) *ApiServer {
	return &ApiServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
		handlerTransport:    di.HandlerTransport,
	}
}

func (s *ApiServer) Run() error {
	s.setupRoutes()
	s.setupHealthCheck()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.WithField("addr", addr).Info("starting api server")
	return s.router.Listen(addr)
}

func (s *ApiServer) setupRoutes() {
	s.router.Use(s.middlewareTransport.ClientIPMiddleware.Middleware())
	s.router.Use(s.middlewareTransport.MetricsMiddleware.Middleware())

	v1 := s.router.Group("/api/v1")
	{
		messages := v1.Group("/messages")
		{
			// Public submission endpoint; everything else requires admin auth.
			messages.Post("", s.handlerTransport.CreateMessageHandler.Handle)

			admin := messages.Group("", s.middlewareTransport.AdminAuthMiddleware.Middleware())
			{
				admin.Get("", s.handlerTransport.ListMessagesHandler.Handle)
				admin.Get("/read/:isRead", s.handlerTransport.ListMessagesByReadHandler.Handle)
				admin.Get("/:id", s.handlerTransport.GetMessageHandler.Handle)
				admin.Patch("/:id/read", s.handlerTransport.MarkMessageReadHandler.Handle)
				admin.Delete("/:id", s.handlerTransport.DeleteMessageHandler.Handle)
			}
		}

		stats := v1.Group("/stats", s.middlewareTransport.AdminAuthMiddleware.Middleware())
		{
			stats.Get("", s.handlerTransport.GetStatsHandler.Handle)
		}
	}
}

func (s *ApiServer) Shutdown() error {
	return s.router.Shutdown()
}

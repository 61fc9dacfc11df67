package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/config"
	handlers "github.com/formshield/formshield/pkg/handlers/http"
	"github.com/formshield/formshield/pkg/infra/captcha"
	"github.com/formshield/formshield/pkg/infra/database"
	infraJwt "github.com/formshield/formshield/pkg/infra/jwt"
	infraLogger "github.com/formshield/formshield/pkg/infra/logger"
	_ "github.com/formshield/formshield/pkg/infra/migrations"
	"github.com/formshield/formshield/pkg/infra/notify"
	"github.com/formshield/formshield/pkg/infra/repository"
	"github.com/formshield/formshield/pkg/infra/stats"
	"github.com/formshield/formshield/pkg/middleware"
	"github.com/formshield/formshield/pkg/protection"
	"github.com/formshield/formshield/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config"
	}
	if err := config.Load(configPath); err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	hasher, err := protection.NewHasher(cfg.Hashing.Salt)
	if err != nil {
		logger.Fatalf("failed to initialize identifier hasher: %v", err)
	}

	tierSets := protection.DefaultTierSets()
	if len(cfg.RateLimits.Limits) > 0 {
		tierSets, err = protection.TierSetsFromSettings(cfg.RateLimits.Limits)
		if err != nil {
			logger.Fatalf("invalid rate limit configuration: %v", err)
		}
	}
	registry := protection.NewRegistry(tierSets, nil)
	if cfg.RateLimits.EvictIdle {
		sweepInterval := 5 * time.Minute
		if cfg.RateLimits.SweepInterval != "" {
			sweepInterval, err = time.ParseDuration(cfg.RateLimits.SweepInterval)
			if err != nil {
				logger.Fatalf("invalid rate limit sweep interval: %v", err)
			}
		}
		registry.StartJanitor(sweepInterval)
		defer registry.StopJanitor()
	}

	statsStore := buildStatsStore(logger, cfg)
	verifier := captcha.NewTurnstileVerifier(logger, cfg.Captcha)
	validator := protection.NewValidator(logger, hasher, registry, verifier, statsStore)

	messageRepository := repository.NewMessageRepository(db.DB)
	notifier := notify.NewEmailNotifier(logger, notify.Config{
		Enabled:   cfg.Notifications.Enabled,
		SMTPHost:  cfg.Notifications.SMTPHost,
		SMTPPort:  cfg.Notifications.SMTPPort,
		Username:  cfg.Notifications.Username,
		Password:  cfg.Notifications.Password,
		FromAddr:  cfg.Notifications.FromAddr,
		Recipient: cfg.Notifications.Recipient,
	})
	jwtManager, err := infraJwt.NewJwtManager(cfg.Auth.JWTSecret)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize admin token verification")
	}

	middlewareTransport := middleware.Transport{
		AdminAuthMiddleware: middleware.NewAdminAuthMiddleware(logger, jwtManager),
		ClientIPMiddleware:  middleware.NewClientIPMiddleware(logger),
		MetricsMiddleware:   middleware.NewMetricsMiddleware(logger),
	}

	handlerTransport := handlers.HandlerTransport{
		CreateMessageHandler:      handlers.NewCreateMessageHandler(logger, validator, messageRepository, notifier),
		ListMessagesHandler:       handlers.NewListMessagesHandler(logger, messageRepository),
		GetMessageHandler:         handlers.NewGetMessageHandler(logger, messageRepository),
		ListMessagesByReadHandler: handlers.NewListMessagesByReadHandler(logger, messageRepository),
		MarkMessageReadHandler:    handlers.NewMarkMessageReadHandler(logger, messageRepository),
		DeleteMessageHandler:      handlers.NewDeleteMessageHandler(logger, messageRepository),
		GetStatsHandler:           handlers.NewGetStatsHandler(logger, statsStore),
	}

	srv := server.NewApiServer(server.ApiServerDI{
		MiddlewareTransport: middlewareTransport,
		HandlerTransport:    handlerTransport,
		Config:              cfg,
		Logger:              logger,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	fmt.Println("shutting down server...")
	if err := srv.Shutdown(); err != nil {
		fmt.Println("error shutting down server:", err)
		os.Exit(1)
	}
	fmt.Println("server gracefully stopped")
}

func buildStatsStore(logger *logrus.Logger, cfg *config.Config) stats.Store {
	if cfg.Stats.Backend != "redis" {
		return stats.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return stats.NewRedisStore(client, logger)
}

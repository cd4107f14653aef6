package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/config"
	"github.com/hazelton-clinic/assessment-service/internal/email"
	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/handlers"
	"github.com/hazelton-clinic/assessment-service/internal/repositories/postgres"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"github.com/hazelton-clinic/assessment-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.RunMigrations {
		if err := pkg.RunMigrations(db, cfg.MigrationsDir, slogLogger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Event bus
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	publisher := events.NewWatermillPublisher(bus.Publisher, cfg.Kafka.TopicPrefix, slogLogger)

	smConfig := services.ServiceManagerConfig{
		Publisher:     publisher,
		Tokens:        auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL),
		EmailComposer: email.NewComposer(cfg.ClientURL),
		ResetTokenTTL: cfg.JWT.ResetTokenTTL,
	}
	if redisClient != nil {
		smConfig.Blacklist = cache.NewTokenBlacklist(redisClient)
		smConfig.LoginLimiter = cache.NewRateLimiter(redisClient, "login", cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginMaxQuota)
	} else {
		smConfig.LoginLimiter = cache.NewLocalRateLimiter(cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginMaxQuota)
	}
	if cfg.Email.ResendAPIKey != "" {
		sender, err := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize email sender: %v", err)
		}
		smConfig.EmailSender = sender
	} else {
		logger.Warn("RESEND_API_KEY not set, emails will only be logged")
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(db, repoManager.GetRepository(), slogLogger, validator, smConfig)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Notification consumer
	consumer, err := events.NewConsumer(bus.Subscriber, cfg.Kafka.TopicPrefix, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event consumer: %v", err)
	}
	serviceManager.Notification().Register(consumer)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	go func() {
		logger.Info("Starting event consumer", "transport", bus.Transport)
		if err := consumer.Run(consumerCtx); err != nil {
			logger.Error("Event consumer stopped", "error", err)
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger, []string{cfg.ClientURL})

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop consuming before the publisher goes away
	stopConsumer()
	if err := consumer.Close(); err != nil {
		log.Printf("Failed to close event consumer: %v", err)
	}

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}
	if err := bus.Close(); err != nil {
		log.Printf("Failed to close event bus: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}

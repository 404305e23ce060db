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
	"gorm.io/gorm"

	"github.com/SAP-F-2025/qti-delivery-service/internal/config"
	"github.com/SAP-F-2025/qti-delivery-service/internal/events"
	"github.com/SAP-F-2025/qti-delivery-service/internal/handlers"
	"github.com/SAP-F-2025/qti-delivery-service/internal/loader"
	"github.com/SAP-F-2025/qti-delivery-service/internal/processing"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
	"github.com/SAP-F-2025/qti-delivery-service/internal/services"
	"github.com/SAP-F-2025/qti-delivery-service/internal/utils"
	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
	"github.com/SAP-F-2025/qti-delivery-service/pkg"
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

	// Load the test definition
	if cfg.TestFile == "" {
		log.Fatalf("TEST_FILE is required")
	}
	test, err := loader.LoadTestFile(cfg.TestFile)
	if err != nil {
		log.Fatalf("Failed to load test definition: %v", err)
	}
	logger.Info("Loaded test definition", "test", test.Identifier, "parts", len(test.TestParts))

	// Initialize the session store
	var (
		store       repositories.BinaryStore
		db          *gorm.DB
		redisClient *redis.Client
	)
	switch cfg.SessionStore {
	case "filesystem":
		store, err = repositories.NewFilesystemStore(cfg.SessionDir)
		if err != nil {
			log.Fatalf("Failed to initialize session store: %v", err)
		}
	case "redis":
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		store = repositories.NewRedisStore(redisClient, cfg.RedisTTL)
	case "postgres":
		db, err = pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		if cfg.RedisURL != "" {
			redisClient, err = pkg.NewRedisClient(cfg)
			if err != nil {
				log.Printf("Warning: Failed to initialize Redis: %v", err)
			}
		}
		store = postgres.NewSessionPostgreSQL(db, redisClient, test.Identifier)
	}
	logger.Info("Session store ready", "store", cfg.SessionStore)

	// Session feature flags
	var sessionConfig uint16
	if cfg.ConsiderMinTime {
		sessionConfig |= runtime.ConfigConsiderMinTime
	}
	if cfg.AlwaysAllowJumps {
		sessionConfig |= runtime.ConfigAlwaysAllowJumps
	}

	// Initialize the session repository
	repo := repositories.NewSessionRepository(repositories.SessionRepositoryConfig{
		Test:              test,
		Store:             store,
		ResponseProcessor: processing.NewEngine(),
		OutcomeProcessor:  processing.NewWeightedScoreProcessor(),
		SessionConfig:     sessionConfig,
		AcceptableLatency: cfg.AcceptableLatency,
		Logger:            slogLogger,
	})

	// Initialize the event publisher
	var eventPublisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		eventPublisher, err = events.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		eventPublisher = events.NewChannelEventPublisher(cfg.KafkaTopic, slogLogger)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repo, eventPublisher, slogLogger, validator)

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
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

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close database connection
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}

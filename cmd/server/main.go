// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airtel-ipn-service/config"
	"airtel-ipn-service/internal/auth"
	"airtel-ipn-service/internal/cache"
	"airtel-ipn-service/internal/handler"
	"airtel-ipn-service/internal/repository"
	"airtel-ipn-service/internal/router"
	"airtel-ipn-service/internal/usecase"
	"airtel-ipn-service/pkg/client"
	"airtel-ipn-service/pkg/ids"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting airtel ipn service")

	// Load configuration
	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Env),
		zap.String("port", cfg.Server.Port))

	// Connect to database
	dbConnStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	dbPool, err := pgxpool.New(context.Background(), dbConnStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("connected to database",
		zap.String("database", cfg.Database.DBName))

	// Optional redis-backed customer cache
	var customerCache *cache.CustomerCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		customerCache = cache.NewCustomerCache(rdb, cfg.Redis.CustomerTTL, logger)
		logger.Info("customer cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize repositories
	notificationRepo := repository.NewNotificationRepository(dbPool)
	customerRepo := repository.NewCustomerRepository(dbPool)
	resultRepo := repository.NewResultRepository(dbPool)

	// Gateway reference generator
	refs := ids.NewGenerator()

	// Downstream ledger client (optional)
	var ledger client.LedgerPoster
	if cfg.Ledger.URL != "" {
		ledger = client.NewLedgerClient(cfg.Ledger, logger)
		logger.Info("ledger posting enabled", zap.String("url", cfg.Ledger.URL))
	} else {
		logger.Warn("no ledger configured, settlements recorded without downstream posting")
	}

	// Initialize usecases
	validationUC := usecase.NewValidationUsecase(
		notificationRepo,
		customerRepo,
		resultRepo,
		customerCache,
		refs,
		cfg,
		logger,
	)

	processingUC := usecase.NewProcessingUsecase(
		notificationRepo,
		resultRepo,
		ledger,
		refs,
		logger,
	)

	// Auth
	tokens := auth.NewTokenService(cfg)

	// Initialize handlers
	ipnHandler := handler.NewIPNHandler(validationUC, processingUC, logger)
	authHandler := handler.NewAuthHandler(tokens, logger)

	// Setup routes
	r := router.SetupRoutes(ipnHandler, authHandler, tokens, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("airtel ipn service started successfully",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Env))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

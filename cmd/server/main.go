package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"wavely/internal/config"
	"wavely/internal/db"
	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/router"
	"wavely/internal/services"
	"wavely/internal/utils"
)

func main() {
	logger := logging.NewLogger()

	// Load .env file
	config.LoadEnv(logger)
	logger.SetLevel(config.GetLogLevel())
	cfg := config.Load()

	// Initialize Database
	conn, err := db.Init(cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	cache, err := utils.NewCache(cfg.CacheSize)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create LRU cache")
	}

	var media services.MediaStore = services.NoopMediaStore{Logger: logger}
	if cfg.Minio.Endpoint != "" {
		store, err := services.NewMinioMediaStore(cfg.Minio, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize media store")
		}
		media = store
	} else {
		logger.Warn("MINIO_ENDPOINT not set, media objects will not be released")
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("LLM_API_KEY not set, classifier calls will degrade to model_error")
	}
	aggregator := services.NewToxicityAggregator(services.NewLLMClassifier(cfg.LLM), logger)

	users := services.NewUserService(conn, logger)
	deps := router.Deps{
		Users:      users,
		Ledger:     services.NewVoteLedger(conn, cache, logger, cfg.Vote),
		Lifecycle:  services.NewLifecycleManager(conn, media, cache, logger),
		Feed:       services.NewFeedService(conn, cache, logger),
		Moderation: services.NewModerationService(conn, aggregator, logger),
		JWTSecret:  []byte(cfg.JWTSecret),
		Logger:     logger,
	}

	// Initialize Gin
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	router.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server exited")
}

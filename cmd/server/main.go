package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avatarctic/anonymous-confessions/configs"
	"github.com/avatarctic/anonymous-confessions/internal/application/services"
	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/avatarctic/anonymous-confessions/internal/core/ports"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/cache"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/health"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/httpserver"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/instagram"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/redis"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/render"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/repositories"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: ", err)
	}

	logger.WithFields(logrus.Fields{
		"ig_username": cfg.Instagram.Username != "",
		"ig_password": cfg.Instagram.Password != "",
		"redis":       cfg.Redis.Enabled(),
	}).Info("Starting anonymous confessions service...")

	renderer, err := render.NewRenderer(&render.Config{Dir: cfg.Render.Dir}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize renderer:", err)
	}

	hcSlice := []ports.HealthChecker{health.NewRenderDirHealthChecker(renderer.Dir())}

	// Session cache: Redis when configured, process memory otherwise
	var sessionCache ports.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")

		sessionCache = redis.NewRedisCache(redisClient, cfg.Redis.KeyPrefix)
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Rate limiting
	rateLimitRepo := repositories.NewRateLimitMemoryRepository(cfg.RateLimit.MaxKeys, repositories.WithBucketTTL(cfg.RateLimit.Window))
	rateLimitRepo.StartJanitor(rootCtx, cfg.RateLimit.CleanupInterval)

	rateLimiterConfig := &services.RateLimiterConfig{
		RequestsPerWindow:  cfg.RateLimit.Requests,
		Window:             cfg.RateLimit.Window,
		PublishesPerMinute: cfg.RateLimit.PublishesPerMinute,
	}
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, rateLimiterConfig, logger)

	// Render and publish pipeline
	igClient, err := instagram.NewClient(instagram.Config{
		Username:   cfg.Instagram.Username,
		Password:   cfg.Instagram.Password,
		SessionTTL: cfg.Instagram.SessionTTL,
	}, sessionCache, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Instagram client:", err)
	}

	publisher := services.NewPublisherService(igClient, &services.PublisherConfig{
		Hashtags:    cfg.Instagram.Hashtags,
		StoryPrompt: confession.DefaultStoryPrompt(cfg.Instagram.StoryQuestion),
	}, logger)

	confessionService := services.NewConfessionService(renderer, publisher, &services.ConfessionServiceConfig{
		Timeout:         cfg.Publish.Timeout,
		PublishDuration: httpserver.GetPublishDuration(),
	}, logger)

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
		Environment:  cfg.Server.Environment,
	}

	deps := httpserver.ServerDeps{
		ConfessionService:  confessionService,
		RateLimiterService: rateLimiterService,
		HealthCheckers:     hcSlice,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// In-flight publishes may run up to the publish deadline
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Publish.Timeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: ", err)
		return
	}

	logger.Info("Server exited")
}

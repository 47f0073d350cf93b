package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/collections"
	"github.com/Panchalparth471/app-backend/internal/config"
	"github.com/Panchalparth471/app-backend/internal/database"
	"github.com/Panchalparth471/app-backend/internal/handler"
	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/logger"
	"github.com/Panchalparth471/app-backend/internal/messaging"
	"github.com/Panchalparth471/app-backend/internal/middleware"
	"github.com/Panchalparth471/app-backend/internal/service"
	"github.com/Panchalparth471/app-backend/pkg/taskmanager"
)

const (
	replenishTaskTimeout = 10 * time.Minute
	taskCleanupInterval  = 10 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	envFile := flag.String("env-file", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile, config.DefaultSecrets())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEnc})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	cfg.LogSummary(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var repo interfaces.StoryRepository
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("Using in-memory story store, data is lost on restart")
		repo = database.NewMemoryStoryRepository(log)
	default:
		if err := database.RunMigrations(cfg.GetDSN(), log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		pool, err := database.NewPool(ctx, database.PoolConfig{
			DSN: cfg.GetDSN(), MaxConns: cfg.DBMaxConns, IdleTimeout: cfg.DBIdleTimeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pool.Close()
		repo = database.NewPgStoryRepository(pool, log)
	}

	registry, err := collections.NewRegistry(collections.DefaultDescriptors(),
		collections.WithTargetCount(cfg.DefaultTargetCount))
	if err != nil {
		log.Fatal("Invalid collection registry", zap.Error(err))
	}

	// --- Providers ---
	var aiClient service.AIClient
	if cfg.TextGenerationEnabled() {
		if aiClient, err = service.NewAIClient(cfg, log); err != nil {
			log.Fatal("Failed to create AI client", zap.Error(err))
		}
	}
	var speechClient service.SpeechClient
	var audioStore service.AudioStore
	if cfg.SpeechEnabled() {
		speechClient = service.NewSpeechClient(cfg)
		if audioStore, err = service.NewDiskAudioStore(cfg.AudioDir, cfg.PublicBaseURL); err != nil {
			log.Fatal("Failed to prepare audio storage", zap.Error(err))
		}
	}
	gateway := service.NewProviderGateway(aiClient, speechClient, audioStore,
		service.NewVoiceSelection(cfg.TTSVoiceID),
		service.GatewayConfig{
			Model:           cfg.AIModel,
			TextTimeout:     cfg.AITimeout,
			SpeechTimeout:   cfg.TTSTimeout,
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: cfg.BreakerCooldown,
		}, log)

	// --- Messaging ---
	var mqConn *amqp.Connection
	var notifier interfaces.ReplenishmentNotifier
	if cfg.RabbitMQURL != "" {
		mqConn, err = connectRabbitMQ(cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		pubCh, err := mqConn.Channel()
		if err != nil {
			log.Fatal("Failed to open RabbitMQ channel", zap.Error(err))
		}
		defer pubCh.Close()
		if notifier, err = messaging.NewRabbitMQNotifier(pubCh, cfg.ReplenishedQueue, log); err != nil {
			log.Fatal("Failed to create replenishment notifier", zap.Error(err))
		}
	}

	// --- Services ---
	tasks := taskmanager.New(taskmanager.Config{
		MaxTasks:    cfg.RegenerationWorkers,
		QueueSize:   cfg.RegenerationQueue,
		TaskTimeout: replenishTaskTimeout,
	}, log)
	engine := service.NewReplenishmentService(registry, repo, gateway, notifier, service.ReplenishmentConfig{
		MaxTokens:        cfg.AIMaxTokens,
		DefaultChildName: cfg.DefaultChildName,
		InitConcurrency:  cfg.InitConcurrency,
	}, log)
	hook := service.NewConsumptionHook(repo, engine, tasks, cfg.DefaultChildName, log)
	storySvc := service.NewStoryService(registry, repo, engine, hook, service.StoryServiceConfig{
		DefaultChildName: cfg.DefaultChildName,
		DefaultChildAge:  cfg.DefaultChildAge,
	}, log)

	var consumer *messaging.CompletionConsumer
	if mqConn != nil {
		consumer = messaging.NewCompletionConsumer(mqConn, messaging.NewCompletionProcessor(storySvc, log), cfg.CompletionQueue, log)
		if err := consumer.Start(ctx); err != nil {
			log.Fatal("Failed to start completion consumer", zap.Error(err))
		}
	}

	go func() {
		ticker := time.NewTicker(taskCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tasks.CleanupTasks(taskCleanupInterval)
			}
		}
	}()

	// --- HTTP ---
	var generationMiddleware []gin.HandlerFunc
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		generationMiddleware = append(generationMiddleware, middleware.RateLimit(redisClient, cfg.RateLimitPerMin, log))
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.ZapLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigin)))

	p := ginprometheus.NewPrometheus("gin")

	router.GET("/health", handler.HealthCheck)
	router.HEAD("/health", handler.HealthCheck)
	router.Static("/audio", cfg.AudioDir)

	api := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		verifier, err := middleware.NewJWTVerifier(cfg.JWTSecret, log)
		if err != nil {
			log.Fatal("Failed to create JWT verifier", zap.Error(err))
		}
		api.Use(middleware.Auth(verifier, log))
	}
	handler.NewStoryHandler(storySvc, log).RegisterRoutes(api, generationMiddleware...)
	p.Use(router)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// synchronous generation can take as long as the provider timeouts
		WriteTimeout: cfg.AITimeout + 2*cfg.TTSTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	if err := tasks.Shutdown(shutdownCtx); err != nil {
		log.Warn("Background replenishment interrupted", zap.Error(err))
	}
	log.Info("Server exited")
}

func corsConfig(origins string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	c.MaxAge = 12 * time.Hour

	list := make([]string, 0)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			list = append(list, o)
		}
	}
	if len(list) == 0 || (len(list) == 1 && list[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = list
	c.AllowCredentials = true
	return c
}

func connectRabbitMQ(url string, log *zap.Logger) (*amqp.Connection, error) {
	const maxRetries = 5
	const retryDelay = 5 * time.Second

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var conn *amqp.Connection
		if conn, err = amqp.Dial(url); err == nil {
			log.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			return conn, nil
		}
		log.Warn("Failed to connect to RabbitMQ, retrying",
			zap.Int("attempt", attempt), zap.Int("maxRetries", maxRetries), zap.Duration("delay", retryDelay), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, err
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

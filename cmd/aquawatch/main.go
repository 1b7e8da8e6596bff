package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/aquawatch/internal/api/http"
	"github.com/i474232898/aquawatch/internal/config"
	"github.com/i474232898/aquawatch/internal/logging"
	"github.com/i474232898/aquawatch/internal/monitor"
	"github.com/i474232898/aquawatch/internal/scheduler"
	"github.com/i474232898/aquawatch/internal/store"
	"github.com/i474232898/aquawatch/internal/upstream"
)

const serviceName = "aquawatch"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	// Settings store: Redis when configured, otherwise in memory.
	var settings monitor.SettingsStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		redisStore := store.NewRedisStore(rdb, serviceName+":", cfg.SettingsMaxAge)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisStore.Ping(pingCtx); err != nil {
			logr.Fatal("redis unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		settings = redisStore
	} else {
		logr.Info("REDIS_ADDR not set; safe ranges are kept in memory")
		settings = store.NewMemoryStore(cfg.SettingsMaxAge)
	}

	// Aquarium API client with resilience (backoff + circuit breaker).
	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.APIBase,
		Timeout: cfg.HTTPTimeout,
		Logger:  logr.Named("upstream"),
	})

	// Core service: reconciliation, classification and series.
	service := monitor.NewService(client, settings, monitor.Options{
		Defaults:         cfg.DefaultRanges,
		Normalizer:       monitor.NewNormalizer(cfg.Location, nil),
		AutoFeedCooldown: cfg.AutoFeedCooldown,
		Logger:           logr.Named("monitor"),
	})

	// Scheduler that periodically polls live data and refreshes history.
	sched := scheduler.New(service, cfg.LivePollInterval, cfg.HistoryPollInterval, cfg.HTTPTimeout, logr.Named("scheduler"))
	if err := sched.Start(); err != nil {
		logr.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		logr.Info("listening", zap.String("port", cfg.Port), zap.String("upstream", cfg.APIBase))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", zap.Error(err))
	}
}

// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schooltino/api/internal/admin"
	"github.com/schooltino/api/internal/ai"
	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/config"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/credentials"
	"github.com/schooltino/api/internal/health"
	"github.com/schooltino/api/internal/middleware"
	"github.com/schooltino/api/internal/onboarding"
	"github.com/schooltino/api/internal/plan"
	"github.com/schooltino/api/internal/principal"
	"github.com/schooltino/api/internal/provider"
	"github.com/schooltino/api/internal/server"
	"github.com/schooltino/api/internal/student"
	"github.com/schooltino/api/internal/subscription"
	"github.com/schooltino/api/internal/token"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	revocations := token.NewRedisRevocations(redis.Client, logger)
	tokenManager, err := token.NewManager(cfg.Token, revocations)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized",
		"algorithm", "ES256",
		"key_id", tokenManager.KeyID(),
	)

	llmClient := provider.NewLLMClient(cfg.Providers.LLM, logger)
	speechClient := provider.NewSpeechClient(cfg.Providers.Speech, logger)
	paymentClient := provider.NewPaymentClient(cfg.Providers.Payment, logger)
	logger.Info("providers configured",
		"llm", llmClient.Configured(),
		"speech", speechClient.Configured(),
	)

	recorder := audit.NewRecorder(db.DB, logger)

	principalRepo := principal.NewRepository(db.DB)

	planRepo := plan.NewRepository(db.DB)
	registry := plan.NewRegistry(planRepo, logger)

	credentialsSvc := credentials.NewService(
		principalRepo, tokenManager, redis.Client, recorder, nil, cfg.Token.TTL)
	credentialsHandler := credentials.NewHandler(credentialsSvc)

	subscriptionRepo := subscription.NewRepository(db.DB)
	subscriptionSvc := subscription.NewService(
		subscriptionRepo, paymentClient, registry, recorder, logger)
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	onboardingSvc := onboarding.NewService(
		db.DB, tokenManager, recorder, logger, cfg.Token.TTL)
	onboardingHandler := onboarding.NewHandler(onboardingSvc)

	studentSvc := student.NewService(student.NewRepository(), db.DB, recorder)
	studentHandler := student.NewHandler(studentSvc)

	aiSvc := ai.NewService(llmClient, speechClient)
	aiHandler := ai.NewHandler(aiSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	limiter := middleware.NewCategoryLimiter(
		redis.Client, cfg.RateLimit.Enabled)

	resolver := middleware.NewResolver(
		tokenManager,
		principalRepo,
		registry,
		llmClient.Configured(),
		logger,
	)
	resolve := resolver.Resolve

	gate := middleware.NewGate(registry)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", tokenManager.JWKSHandler())

	router.Route("/api", func(r chi.Router) {
		onboardingHandler.RegisterRoutes(r, limiter)
		credentialsHandler.RegisterRoutes(r, limiter, resolve)
		subscriptionHandler.RegisterRoutes(r, resolve)
		studentHandler.RegisterRoutes(r, resolve, gate)
		aiHandler.RegisterRoutes(r, limiter, resolve, gate)
		adminHandler.RegisterRoutes(r, resolve)
	})

	scheduler := subscription.NewScheduler(subscriptionSvc, registry, logger)
	if err := scheduler.Start(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	scheduler.Stop()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

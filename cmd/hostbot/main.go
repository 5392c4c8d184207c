package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/botmakerhq/hostbot/internal/bot"
	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/health"
	"github.com/botmakerhq/hostbot/internal/idempotency"
	"github.com/botmakerhq/hostbot/internal/lifecycle"
	"github.com/botmakerhq/hostbot/internal/middleware"
	"github.com/botmakerhq/hostbot/internal/ratelimit"
	"github.com/botmakerhq/hostbot/internal/scan"
	"github.com/botmakerhq/hostbot/internal/session"
	"github.com/botmakerhq/hostbot/internal/webhook"
	"github.com/botmakerhq/hostbot/pkg/config"
	"github.com/botmakerhq/hostbot/pkg/graceful"
	"github.com/botmakerhq/hostbot/pkg/logger"
	"github.com/botmakerhq/hostbot/pkg/metrics"
	pkgredis "github.com/botmakerhq/hostbot/pkg/redis"
)

const defaultBotAPIURL = "https://api.telegram.org"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	slog.SetDefault(log)

	log.Info("starting hosting bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("storage_backend", cfg.Storage.Backend),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return fmt.Errorf("initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.New(ctx, pkgredis.Config{
			Enabled:         cfg.Redis.Enabled,
			Addr:            cfg.Redis.Addr,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			PoolSize:        cfg.Redis.PoolSize,
			MinIdleConns:    cfg.Redis.MinIdleConns,
			PoolTimeout:     cfg.Redis.PoolTimeout,
			IdleTimeout:     cfg.Redis.IdleTimeout,
			MaxRetries:      cfg.Redis.MaxRetries,
			MinRetryBackoff: cfg.Redis.MinRetryBackoff,
			MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	} else {
		log.Warn("redis disabled, using in-memory session and rate-limit state")
	}

	sessionStorage, sessions := buildSessions(redisClient, log)

	policy := files.Policy{
		AllowedExtensions: cfg.Storage.AllowedExtensions,
		ScanUploads:       cfg.Storage.ScanUploads,
		MaxFiles:          cfg.Storage.MaxFiles,
		MaxFileSize:       cfg.Storage.MaxFileSize,
	}

	store, err := buildStore(cfg, policy, log)
	if err != nil {
		return fmt.Errorf("initialize file store: %w", err)
	}

	scanner := scan.NewScanner(scan.DefaultDenyList)

	apiURL := cfg.Bot.APIURL
	if apiURL == "" {
		apiURL = defaultBotAPIURL
	}
	webhookClient := webhook.NewClient(apiURL, cfg.Bot.RequestTimeout, log)
	orchestrator := webhook.NewOrchestrator(webhookClient, store, cfg.Storage.PublicBaseURL, log)

	rateLimitMw := buildRateLimit(cfg, redisClient, log)

	var idemManager idempotency.Manager
	if redisClient != nil {
		idemManager = idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)
	}

	b, err := bot.New(*cfg, log, sessions, store, scanner, orchestrator, idemManager, rateLimitMw)
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	checker := health.NewChecker(log)
	if checkable, ok := store.(health.Checkable); ok {
		checker.AddCheck("storage", checkable)
	}
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	mux := http.NewServeMux()
	mux.Handle("/health", checker.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	adminServer := graceful.NewHTTP(log, ":"+cfg.Server.Port, logger.Middleware(mux), cfg.Server.ShutdownTimeout)

	go metrics.NewSessionCollector(sessionStorage).Run(ctx)

	if redisClient != nil {
		go ratelimit.NewCleaner(redisClient.Client, log, time.Hour).Run(ctx)
		go idempotency.NewCleaner(redisClient.Client, log, time.Hour).Run(ctx)
	}

	config.Watch(v, log, func(updated *config.Config) {
		// Most settings need a restart to take effect. The reload is logged so
		// operators can tell a stale process from a reloaded one.
		log.Info("configuration file reloaded", slog.String("env", updated.AppEnv))
	})

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram-bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- adminServer.ListenAndServe(ctx)
	}()

	go b.Start()
	log.Info("bot started")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			stop()
			log.Error("admin server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

func buildSessions(redisClient *pkgredis.Client, log *slog.Logger) (session.Storage, session.Manager) {
	if redisClient != nil {
		storage := session.NewRedisStorage(redisClient.Client, log)
		return storage, session.NewManager(storage, log, redisClient.Client)
	}

	storage := session.NewMemoryStorage()
	return storage, session.NewManager(storage, log, nil)
}

func buildStore(cfg *config.Config, policy files.Policy, log *slog.Logger) (files.Store, error) {
	switch cfg.Storage.Backend {
	case "s3":
		client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
			Secure: cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize s3 client: %w", err)
		}

		return files.NewS3Store(client, cfg.S3.Bucket, policy, log)
	default:
		return files.NewDiskStore(cfg.Storage.BaseDir, policy, log)
	}
}

func buildRateLimit(cfg *config.Config, redisClient *pkgredis.Client, log *slog.Logger) *middleware.RateLimitMiddleware {
	rules := ratelimit.NewRules(cfg.RateLimit)
	if !rules.Enabled() {
		return nil
	}

	limiter := ratelimit.NewMemoryLimiter(log)
	if redisClient != nil {
		// Redis is authoritative; the in-memory limiter covers Redis outages.
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(redisClient.Client, log), limiter, log)
	}

	return middleware.NewRateLimitMiddleware(limiter, rules, log)
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/tmorgan-dev/authgate/internal/auth"
	"github.com/tmorgan-dev/authgate/internal/background"
	"github.com/tmorgan-dev/authgate/internal/config"
	"github.com/tmorgan-dev/authgate/internal/handlers"
	middlewareCustom "github.com/tmorgan-dev/authgate/internal/middleware"
	"github.com/tmorgan-dev/authgate/internal/models"
	"github.com/tmorgan-dev/authgate/internal/repositories"
	"github.com/tmorgan-dev/authgate/internal/routes"
	"github.com/tmorgan-dev/authgate/internal/services"
	pkghttp "github.com/tmorgan-dev/authgate/pkg/http"
	pkglogger "github.com/tmorgan-dev/authgate/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Credential validator; the gate answers 500 until a pair is set
	credentials := auth.NewCredentialValidator(auth.CredentialConfig{
		Email:        cfg.Admin.Email,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
	})
	if !credentials.Configured() {
		logger.Warn("admin credentials not provisioned; login will fail with a configuration error")
	}

	policy := models.AttemptPolicy{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
		Lockout:     cfg.RateLimit.Lockout,
	}

	// Attempt store: shared redis when configured, else process-local
	var attemptStore repositories.AttemptStore
	var redisClient *redis.Client
	var memoryStore *repositories.MemoryAttemptStore

	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()
		defer redisClient.Close()

		attemptStore = repositories.NewRedisAttemptStore(redisClient, policy, nil)
		logger.Info("attempt store backed by redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		memoryStore = repositories.NewMemoryAttemptStore(policy, nil)
		attemptStore = memoryStore
		logger.Info("attempt store is in-memory; rate limits apply per instance")
	}

	rateLimitService := services.NewRateLimitService(attemptStore, logger)

	sessionManager := auth.NewSessionManager(auth.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Timing.BaseDelayMs,
		RandomDelayMs: cfg.Timing.RandomDelayMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(
		credentials,
		rateLimitService,
		sessionManager,
		timingDelay,
		logger,
		auditLogger,
	)

	keyConfig := &pkghttp.ClientKeyConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Domain: cfg.Session.CookieDomain,
		Secure: cfg.Server.Env == "production",
	}

	authHandler := handlers.NewAuthHandler(authService, keyConfig, cookieConfig)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.RequestCeiling(cfg.Server.RequestCeiling))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.Register(router, authHandler, sessionManager)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy","attempt_store":"down"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Sweep stale attempt records; redis evicts by TTL on its own
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	var cleanupManager *background.CleanupManager
	if memoryStore != nil {
		cleanupManager = background.NewCleanupManager(memoryStore, logger, cfg.RateLimit.CleanupInterval)
		go cleanupManager.Start(cleanupCtx)
	}

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	if cleanupManager != nil {
		cleanupManager.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

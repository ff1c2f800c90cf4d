package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rosterline/rosterauth/internal/auth"
	"github.com/rosterline/rosterauth/internal/background"
	"github.com/rosterline/rosterauth/internal/cache"
	"github.com/rosterline/rosterauth/internal/config"
	"github.com/rosterline/rosterauth/internal/database"
	"github.com/rosterline/rosterauth/internal/handlers"
	middlewareCustom "github.com/rosterline/rosterauth/internal/middleware"
	"github.com/rosterline/rosterauth/internal/models"
	"github.com/rosterline/rosterauth/internal/repositories"
	"github.com/rosterline/rosterauth/internal/routes"
	"github.com/rosterline/rosterauth/internal/services"
	pkgauth "github.com/rosterline/rosterauth/pkg/auth"
	pkghttp "github.com/rosterline/rosterauth/pkg/http"
	pkglogger "github.com/rosterline/rosterauth/pkg/logger"
)

// revocationStore is satisfied by both the Redis blacklist and the Postgres repository.
type revocationStore interface {
	services.TokenRevocationRepository
	background.ExpiredTokenCleaner
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	lockoutRepo := repositories.NewLockoutRepository(db)
	authLogRepo := repositories.NewAuthLogRepository(db)
	groupRepo := repositories.NewScheduleGroupRepository(db)
	loginStore := repositories.NewLoginStore(db)

	// Token revocation: Redis when configured, Postgres otherwise
	var revocations revocationStore = repositories.NewTokenRevocationRepository(db)
	var cacheHealth handlers.HealthChecker
	if cfg.Redis.Addr != "" {
		redisCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := cache.New(redisCtx, cfg.Redis)
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Close()

		blacklist := cache.NewTokenBlacklist(client)
		revocations = blacklist
		cacheHealth = blacklist
		logger.Info("token revocation backed by redis", slog.String("addr", cfg.Redis.Addr))
	}

	argon2Params := pkgauth.Argon2Params{
		Memory:      cfg.Password.MemoryCost,
		Iterations:  cfg.Password.TimeCost,
		Parallelism: cfg.Password.Parallelism,
	}

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureMaintainerAccount(bootstrapCtx, accountRepo, argon2Params, logger); err != nil {
		logger.Error("failed to ensure maintainer account", slog.Any("error", err))
	}
	cancel()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:    cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs:  cfg.Auth.TimingDelayRandomMs,
		DelayOnSuccess: cfg.Auth.TimingDelayOnSuccess,
	})

	// Services
	authenticator := services.NewAuthenticator(loginStore, services.LockoutPolicy{
		MaxAttempts:     cfg.Auth.MaxFailedAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}, logger, auditLogger)
	sessionService := services.NewSessionService(authenticator, tokenManager, revocations, accountRepo, groupRepo, timingDelay, logger)
	accountService := services.NewAccountService(accountRepo, lockoutRepo, authLogRepo, groupRepo, logger, auditLogger)

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: cfg.Auth.CookieSameSite,
	}
	authHandler := handlers.NewAuthHandler(sessionService, tokenManager, ipConfig, cookieConfig, logger)
	accountHandler := handlers.NewAccountHandler(accountService)
	healthHandler := handlers.NewHealthHandler(db, cacheHealth)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins}))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:    authHandler,
		AccountHandler: accountHandler,
		HealthHandler:  healthHandler,
		TokenManager:   tokenManager,
		Revocations:    revocations,
		Revocation:     auth.RevocationConfig{FailClosed: cfg.Server.Env == "production"},
		Accounts:       accountRepo,
		LoginRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.Auth.LoginRequestsPerMinute,
			IPConfig:          ipConfig,
		},
		Logger: logger,
	})

	cleanupManager := background.NewCleanupManager(revocations, authLogRepo, background.CleanupConfig{
		Schedule:         cfg.Auth.CleanupSchedule,
		AuthLogRetention: cfg.Auth.AuthLogRetention,
	}, logger)
	if err := cleanupManager.Start(); err != nil {
		logger.Error("failed to start cleanup manager", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureMaintainerAccount creates the first maintainer if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureMaintainerAccount(ctx context.Context, accounts *repositories.AccountRepository, params pkgauth.Argon2Params, logger *slog.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" || password == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping maintainer bootstrap")
		return nil
	}

	_, err := accounts.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("maintainer account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check for maintainer account: %w", err)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
	}

	hash, err := pkgauth.HashPassword(password, params)
	if err != nil {
		return fmt.Errorf("failed to hash maintainer password: %w", err)
	}

	_, err = accounts.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Roster",
		LastName:     "Maintainer",
		Role:         models.RoleMaintainer,
	})
	if err != nil {
		return fmt.Errorf("failed to create maintainer account: %w", err)
	}

	logger.Info("maintainer account created", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

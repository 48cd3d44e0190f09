// Package main is the entry point for the CRM API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crmapi/internal/domain"
	"crmapi/internal/domain/auth"
	"crmapi/internal/domain/contact"
	"crmapi/internal/domain/customfield"
	"crmapi/internal/infrastructure/cache"
	v1 "crmapi/internal/infrastructure/http/v1"
	"crmapi/internal/infrastructure/http/v1/handlers"
	"crmapi/internal/infrastructure/storage/postgres"
	"crmapi/internal/infrastructure/storage/postgres/auth_repo"
	"crmapi/internal/infrastructure/storage/postgres/contact_repo"
	"crmapi/internal/infrastructure/storage/postgres/customfield_repo"
	"crmapi/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting crmapi server", "version", version, "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	pool.LogStats(ctx)

	txManager := postgres.NewTxManager(pool)
	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		log.Fatalw("failed to create audit log", "error", err)
	}

	// --- Custom fields ---
	fieldRepo := customfield_repo.NewFieldRepo(txManager)
	valueRepo := customfield_repo.NewValueRepo(txManager)
	fieldService := customfield.NewService(fieldRepo, valueRepo, txManager, auditLog)

	var (
		fieldSource customfield.Source = fieldRepo
		fieldCache  *cache.FieldCache
	)
	if cfg.CustomFieldCache {
		fieldCache = cache.NewFieldCache(pool.Pool, fieldRepo)
		for _, event := range []domain.HookEvent{domain.AfterCreate, domain.AfterUpdate, domain.AfterDelete} {
			fieldService.Hooks().On(event, fieldCache.OnFieldChanged)
		}
		if err := fieldCache.Start(ctx); err != nil {
			log.Fatalw("failed to start custom field cache", "error", err)
		}
		defer fieldCache.Stop()
		fieldSource = fieldCache
	}

	// --- Contacts ---
	contactService := contact.NewService(contact_repo.NewRepo(txManager), fieldService, txManager, auditLog)
	filterService := contact.NewFilterService(
		fieldSource,
		contact_repo.NewExecutor(txManager.WithStatementTimeout(cfg.FilterStatementTimeout)),
	)

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtConfig)
	authService := auth.NewService(auth_repo.NewUserRepo(txManager), jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		Health:       handlers.NewHealthHandler(pool, fieldCache, version),
		Auth:         authService,
		Contacts:     contactService,
		Filter:       filterService,
		CustomFields: fieldService,
		Debug:        cfg.development(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful shutdown ---
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

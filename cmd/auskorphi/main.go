package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wonrang2/auskorphi/internal/app"
	"github.com/wonrang2/auskorphi/internal/auth"
	"github.com/wonrang2/auskorphi/internal/batches"
	"github.com/wonrang2/auskorphi/internal/fx"
	"github.com/wonrang2/auskorphi/internal/importer"
	"github.com/wonrang2/auskorphi/internal/inventory"
	"github.com/wonrang2/auskorphi/internal/platform/cache"
	"github.com/wonrang2/auskorphi/internal/platform/db"
	"github.com/wonrang2/auskorphi/internal/products"
	"github.com/wonrang2/auskorphi/internal/reports"
	"github.com/wonrang2/auskorphi/internal/sales"
	"github.com/wonrang2/auskorphi/internal/shared"
	"github.com/wonrang2/auskorphi/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, cfg.BcryptCost)
	usersHandler := users.NewHandler(logger, usersService)

	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(usersService, tokenIssuer)
	authHandler := auth.NewHandler(logger, authService)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, auditLogger)
	productsHandler := products.NewHandler(logger, productsService)

	batchesRepo := batches.NewRepository(pool)
	batchesService := batches.NewService(batchesRepo, auditLogger)
	batchesHandler := batches.NewHandler(logger, batchesService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	inventoryService := inventory.NewService(batchesRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	reportsService := reports.NewService(salesRepo, inventoryService)
	reportsHandler := reports.NewHandler(logger, reportsService)

	fxRepo := fx.NewRepository(pool)
	fxClient := fx.NewClient(cfg.FXEndpoint)
	fxService, err := fx.NewService(logger, fxClient, fxRepo, redisClient,
		cfg.FXBaseCurrency, cfg.FXQuoteCurrency, cfg.FXCacheTTL)
	if err != nil {
		logger.Error("init exchange rates", slog.Any("error", err))
		os.Exit(1)
	}
	fxHandler := fx.NewHandler(logger, fxService)

	importerRepo := importer.NewRepository(pool)
	importerService := importer.NewService(importerRepo, auditLogger)
	importerHandler := importer.NewHandler(logger, importerService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthService:      authService,
		AuthHandler:      authHandler,
		ProductsHandler:  productsHandler,
		BatchesHandler:   batchesHandler,
		SalesHandler:     salesHandler,
		InventoryHandler: inventoryHandler,
		ReportsHandler:   reportsHandler,
		FXHandler:        fxHandler,
		ImporterHandler:  importerHandler,
		UsersHandler:     usersHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

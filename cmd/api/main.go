package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitdash-payments/config"
	httpHandler "bitdash-payments/internal/adapter/http/handler"
	pgStorage "bitdash-payments/internal/adapter/storage/postgres"
	redisStorage "bitdash-payments/internal/adapter/storage/redis"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/internal/service"
	"bitdash-payments/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting BitDash payments platform")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	customerRepo := pgStorage.NewCustomerRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	linkRepo := pgStorage.NewPaymentLinkRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	nonceStore := redisStorage.NewNonceStore(rdb)
	pinLockout := redisStorage.NewPinLockout(rdb, cfg.Pin.MaxFailures, cfg.Pin.LockoutWindow)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	auditSvc := service.NewAuditService(auditRepo, log)
	authSvc := service.NewAuthService(merchantRepo, customerRepo, walletRepo, hashSvc, encSvc, tokenSvc, auditSvc)
	webhookSvc := service.NewWebhookService(merchantRepo, encSvc, sigSvc, &http.Client{Timeout: 10 * time.Second}, log)
	walletSvc := service.NewWalletService(
		walletRepo,
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		hashSvc,
		pinLockout,
		auditSvc,
		transactor,
		log,
	)
	settlementSvc := service.NewSettlementService(
		linkRepo,
		walletRepo,
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		hashSvc,
		pinLockout,
		webhookSvc,
		auditSvc,
		transactor,
		log,
	)
	linkSvc := service.NewPaymentLinkService(
		linkRepo,
		merchantRepo,
		hashSvc,
		auditSvc,
		cfg.Link.BaseURL,
		cfg.Link.DefaultExpiry,
		cfg.Link.MaxExpiry,
		log,
	)
	orderSvc := service.NewOrderService(orderRepo, merchantRepo, auditSvc, transactor, log)
	reportingSvc := service.NewReportingService(walletRepo, txRepo, log)
	merchantSvc := service.NewMerchantService(merchantRepo, encSvc, auditSvc, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		SettlementSvc:  settlementSvc,
		LinkSvc:        linkSvc,
		OrderSvc:       orderSvc,
		ReportingSvc:   reportingSvc,
		MerchantSvc:    merchantSvc,
		AuditSvc:       auditSvc,
		MerchantRepo:   merchantRepo,
		EncSvc:         encSvc,
		SigSvc:         sigSvc,
		NonceStore:     nonceStore,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

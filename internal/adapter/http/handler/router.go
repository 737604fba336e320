package handler

import (
	"bitdash-payments/internal/adapter/http/middleware"
	redisStore "bitdash-payments/internal/adapter/storage/redis"
	"bitdash-payments/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	SettlementSvc  ports.SettlementService
	LinkSvc        ports.PaymentLinkService
	OrderSvc       ports.OrderService
	ReportingSvc   ports.ReportingService
	MerchantSvc    ports.MerchantManagementService
	AuditSvc       ports.AuditService // nil = login auditing disabled
	MerchantRepo   ports.MerchantRepository
	EncSvc         ports.EncryptionService
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public auth routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	if deps.AuditSvc != nil {
		auth.Use(middleware.AuditLogins(deps.AuditSvc))
	}
	{
		auth.POST("/merchants/register", rl("auth_register"), authHandler.RegisterMerchant)
		auth.POST("/merchants/login", rl("auth_login"), authHandler.LoginMerchant)
		auth.POST("/customers/register", rl("auth_register"), authHandler.RegisterCustomer)
		auth.POST("/customers/login", rl("auth_login"), authHandler.LoginCustomer)
	}

	linkHandler := NewPaymentLinkHandler(deps.LinkSvc, deps.SettlementSvc)
	customerAuth := middleware.JWTAuth(deps.TokenSvc, ports.ActorTypeCustomer, deps.Logger)

	// --- Public link view + customer settlement ---
	pay := v1.Group("/pay")
	{
		pay.GET("/:code", linkHandler.GetPublic)
		pay.POST("/:code/settle", customerAuth, rl("settle"), linkHandler.Settle)
	}

	// --- HMAC-authenticated routes (merchant server API) ---
	hmacAuth := middleware.HMACAuth(deps.MerchantRepo, deps.EncSvc, deps.SigSvc, deps.NonceStore, deps.Logger)
	links := v1.Group("/links", hmacAuth)
	{
		links.POST("", rl("links"), linkHandler.Create)
		links.GET("", rl("links"), linkHandler.List)
		links.GET("/:code", rl("links"), linkHandler.Get)
	}

	// --- Customer JWT routes (wallet) ---
	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets", customerAuth)
	{
		wallets.GET("/balance", rl("dashboard"), walletHandler.GetBalance)
		wallets.POST("/deposit", rl("wallet_ops"), walletHandler.Deposit)
		wallets.POST("/withdraw", rl("wallet_ops"), walletHandler.Withdraw)
		wallets.POST("/transfer", rl("wallet_ops"), walletHandler.Transfer)
		wallets.POST("/verify-pin", rl("wallet_ops"), walletHandler.VerifyPin)
		wallets.PUT("/status", rl("wallet_ops"), walletHandler.SetStatus)
	}

	// --- Merchant JWT routes (dashboard) ---
	merchantAuth := middleware.JWTAuth(deps.TokenSvc, ports.ActorTypeMerchant, deps.Logger)
	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)
	orderHandler := NewOrderHandler(deps.OrderSvc)
	merchantHandler := NewMerchantHandler(deps.MerchantSvc)

	dashboard := v1.Group("/dashboard", merchantAuth)
	{
		dashboard.GET("/stats", rl("dashboard"), dashboardHandler.GetStats)
	}

	transactions := v1.Group("/transactions", merchantAuth)
	{
		transactions.GET("", rl("dashboard"), dashboardHandler.ListTransactions)
	}

	orders := v1.Group("/orders", merchantAuth)
	{
		orders.POST("", rl("dashboard"), orderHandler.Create)
		orders.GET("/:id", rl("dashboard"), orderHandler.Get)
		orders.PUT("/:id/lines", rl("dashboard"), orderHandler.ReplaceLines)
	}

	merchants := v1.Group("/merchants/me", merchantAuth)
	{
		merchants.GET("", rl("dashboard"), merchantHandler.GetProfile)
		merchants.PUT("/webhook", rl("dashboard"), merchantHandler.UpdateWebhookURL)
		merchants.POST("/rotate-keys", rl("dashboard"), merchantHandler.RotateKeys)
	}

	return r
}

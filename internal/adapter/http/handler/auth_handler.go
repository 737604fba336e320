package handler

import (
	"context"
	"net/http"
	"time"

	"bitdash-payments/internal/adapter/http/dto"
	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"
	"bitdash-payments/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration and login for both actor kinds.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// RegisterMerchant handles POST /api/v1/auth/merchants/register.
func (h *AuthHandler) RegisterMerchant(c *gin.Context) {
	var req dto.RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.RegisterMerchant(c.Request.Context(), ports.RegisterMerchantRequest{
		Username:     req.Username,
		Password:     req.Password,
		MerchantName: req.MerchantName,
		Tier:         domain.SubscriptionTier(req.Tier),
		WalletPin:    req.WalletPin,
		Currency:     req.Currency,
		WebhookURL:   req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.RegisterMerchantResponse{
		MerchantID: result.MerchantID.String(),
		WalletID:   result.WalletID.String(),
		AccessKey:  result.AccessKey,
		SecretKey:  result.SecretKey,
	})
}

// RegisterCustomer handles POST /api/v1/auth/customers/register.
func (h *AuthHandler) RegisterCustomer(c *gin.Context) {
	var req dto.RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.RegisterCustomer(c.Request.Context(), ports.RegisterCustomerRequest{
		Username:  req.Username,
		Password:  req.Password,
		FullName:  req.FullName,
		WalletPin: req.WalletPin,
		Currency:  req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.RegisterCustomerResponse{
		CustomerID: result.CustomerID.String(),
		WalletID:   result.WalletID.String(),
	})
}

// LoginMerchant handles POST /api/v1/auth/merchants/login.
func (h *AuthHandler) LoginMerchant(c *gin.Context) {
	h.login(c, h.authSvc.LoginMerchant)
}

// LoginCustomer handles POST /api/v1/auth/customers/login.
func (h *AuthHandler) LoginCustomer(c *gin.Context) {
	h.login(c, h.authSvc.LoginCustomer)
}

func (h *AuthHandler) login(c *gin.Context, loginFn func(ctx context.Context, username, password string) (string, time.Time, error)) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, err := loginFn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// HealthCheck handles GET /health with a deep dependency check.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

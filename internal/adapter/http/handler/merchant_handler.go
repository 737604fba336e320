package handler

import (
	"bitdash-payments/internal/adapter/http/dto"
	"bitdash-payments/internal/adapter/http/middleware"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"
	"bitdash-payments/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles merchant self-service endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantManagementService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(merchantSvc ports.MerchantManagementService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// GetProfile handles GET /api/v1/merchants/me.
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	profile, err := h.merchantSvc.GetProfile(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.MerchantProfileResponse{
		ID:           profile.ID.String(),
		Username:     profile.Username,
		MerchantName: profile.MerchantName,
		Tier:         string(profile.Tier),
		WebhookURL:   profile.WebhookURL,
		Status:       string(profile.Status),
		CreatedAt:    profile.CreatedAt,
	})
}

// UpdateWebhookURL handles PUT /api/v1/merchants/me/webhook.
func (h *MerchantHandler) UpdateWebhookURL(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.merchantSvc.UpdateWebhookURL(c.Request.Context(), merchantID, req.WebhookURL); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "webhook URL updated"})
}

// RotateKeys handles POST /api/v1/merchants/me/rotate-keys.
func (h *MerchantHandler) RotateKeys(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	result, err := h.merchantSvc.RotateKeys(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.RotateKeysResponse{
		AccessKey: result.AccessKey,
		SecretKey: result.SecretKey,
	})
}

package handler

import (
	"strconv"
	"time"

	"bitdash-payments/internal/adapter/http/dto"
	"bitdash-payments/internal/adapter/http/middleware"
	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"
	"bitdash-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentLinkHandler handles link creation, reads, and settlement.
type PaymentLinkHandler struct {
	linkSvc       ports.PaymentLinkService
	settlementSvc ports.SettlementService
}

// NewPaymentLinkHandler creates a new PaymentLinkHandler.
func NewPaymentLinkHandler(linkSvc ports.PaymentLinkService, settlementSvc ports.SettlementService) *PaymentLinkHandler {
	return &PaymentLinkHandler{linkSvc: linkSvc, settlementSvc: settlementSvc}
}

// Create handles POST /api/v1/links (merchant HMAC API).
func (h *PaymentLinkHandler) Create(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAccessKey())
		return
	}

	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := dto.ParseAmount(*req.Amount)
		if err != nil {
			response.Error(c, err)
			return
		}
		amount = &parsed
	}

	var expiresAt time.Time
	if req.ExpiresAt != nil {
		expiresAt = time.Unix(*req.ExpiresAt, 0)
	}

	link, url, err := h.linkSvc.Create(c.Request.Context(), ports.CreateLinkRequest{
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   req.Currency,
		ExpiresAt:  expiresAt,
		Pin:        req.Pin,
		Metadata:   req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toLinkResponse(link, url))
}

// Get handles GET /api/v1/links/:code (merchant HMAC API).
func (h *PaymentLinkHandler) Get(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAccessKey())
		return
	}

	link, err := h.linkSvc.GetForMerchant(c.Request.Context(), merchantID, c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLinkResponse(link, ""))
}

// List handles GET /api/v1/links (merchant HMAC API).
func (h *PaymentLinkHandler) List(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAccessKey())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	links, err := h.linkSvc.List(c.Request.Context(), merchantID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PaymentLinkResponse, 0, len(links))
	for i := range links {
		items = append(items, toLinkResponse(&links[i], ""))
	}

	response.OK(c, dto.LinkListResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetPublic handles GET /api/v1/pay/:code (no auth). The payer-facing view
// never exposes settlement internals.
func (h *PaymentLinkHandler) GetPublic(c *gin.Context) {
	link, err := h.linkSvc.GetPublic(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var amount *string
	if link.Amount != nil {
		s := link.Amount.StringFixed(2)
		amount = &s
	}

	response.OK(c, dto.PublicLinkResponse{
		Code:      link.Code,
		Amount:    amount,
		Currency:  link.Currency,
		Status:    string(link.Status),
		HasPin:    link.PinHash != nil,
		ExpiresAt: link.ExpiresAt.Format(time.RFC3339),
		Metadata:  link.Metadata,
	})
}

// Settle handles POST /api/v1/pay/:code/settle (customer JWT).
func (h *PaymentLinkHandler) Settle(c *gin.Context) {
	payerID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SettleLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := dto.ParseAmount(*req.Amount)
		if err != nil {
			response.Error(c, err)
			return
		}
		amount = &parsed
	}

	tx, err := h.settlementSvc.Settle(c.Request.Context(), ports.SettleRequest{
		Code:     c.Param("code"),
		PayerID:  payerID,
		Pin:      req.Pin,
		Amount:   amount,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(tx))
}

// toLinkResponse converts a domain link to its merchant-facing DTO.
func toLinkResponse(link *domain.PaymentLink, url string) dto.PaymentLinkResponse {
	resp := dto.PaymentLinkResponse{
		ID:        link.ID.String(),
		Code:      link.Code,
		URL:       url,
		Currency:  link.Currency,
		Status:    string(link.Status),
		HasPin:    link.PinHash != nil,
		ExpiresAt: link.ExpiresAt.Format(time.RFC3339),
		Metadata:  link.Metadata,
		CreatedAt: link.CreatedAt.Format(time.RFC3339),
	}
	if link.Amount != nil {
		s := link.Amount.StringFixed(2)
		resp.Amount = &s
	}
	if link.CompletedAt != nil {
		s := link.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// toTransactionResponse converts a ledger leg to its DTO.
func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              tx.ID.String(),
		ReferenceID:     tx.ReferenceID,
		PairID:          tx.PairID.String(),
		Direction:       string(tx.Direction),
		Amount:          tx.Amount.StringFixed(2),
		Currency:        tx.Currency,
		TransactionType: string(tx.TransactionType),
		Status:          string(tx.Status),
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.CounterpartyWalletID != nil {
		s := tx.CounterpartyWalletID.String()
		resp.CounterpartyWalletID = &s
	}
	if tx.ProcessedAt != nil {
		s := tx.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

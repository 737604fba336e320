package handler

import (
	"context"

	"bitdash-payments/internal/adapter/http/dto"
	"bitdash-payments/internal/adapter/http/middleware"
	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"
	"bitdash-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles customer wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance handles GET /api/v1/wallets/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	balance, currency, err := h.walletSvc.GetBalance(c.Request.Context(), domain.OwnerTypeCustomer, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		Balance:  balance.StringFixed(2),
		Currency: currency,
	})
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.move(c, h.walletSvc.Deposit)
}

// Withdraw handles POST /api/v1/wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.move(c, h.walletSvc.Withdraw)
}

func (h *WalletHandler) move(c *gin.Context, moveFn func(ctx context.Context, req ports.WalletMovementRequest) (*domain.Transaction, error)) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WalletMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	tx, err := moveFn(c.Request.Context(), ports.WalletMovementRequest{
		OwnerType: domain.OwnerTypeCustomer,
		OwnerID:   actorID,
		Amount:    amount,
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(tx))
}

// Transfer handles POST /api/v1/wallets/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	recipientWalletID, err := uuid.Parse(req.RecipientWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("recipient_wallet_id must be a UUID"))
		return
	}

	tx, err := h.walletSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:          actorID,
		RecipientWalletID: recipientWalletID,
		Amount:            amount,
		Pin:               req.Pin,
		ReferenceID:       req.ReferenceID,
		ClientIP:          c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(tx))
}

// VerifyPin handles POST /api/v1/wallets/verify-pin.
func (h *WalletHandler) VerifyPin(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.walletSvc.VerifyPin(c.Request.Context(), domain.OwnerTypeCustomer, actorID, req.Pin); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"valid": true})
}

// SetStatus handles PUT /api/v1/wallets/status.
func (h *WalletHandler) SetStatus(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WalletStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.walletSvc.SetActive(c.Request.Context(), domain.OwnerTypeCustomer, actorID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"active": *req.Active})
}

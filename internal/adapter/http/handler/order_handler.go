package handler

import (
	"time"

	"bitdash-payments/internal/adapter/http/dto"
	"bitdash-payments/internal/adapter/http/middleware"
	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"
	"bitdash-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles merchant order endpoints.
type OrderHandler struct {
	orderSvc ports.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// Create handles POST /api/v1/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	lines, err := parseOrderLines(req.Lines)
	if err != nil {
		response.Error(c, err)
		return
	}

	order, orderLines, err := h.orderSvc.Create(c.Request.Context(), ports.CreateOrderRequest{
		MerchantID:    merchantID,
		PaymentMethod: req.PaymentMethod,
		Lines:         lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toOrderResponse(order, orderLines))
}

// Get handles GET /api/v1/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("order id must be a UUID"))
		return
	}

	order, lines, err := h.orderSvc.Get(c.Request.Context(), merchantID, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order, lines))
}

// ReplaceLines handles PUT /api/v1/orders/:id/lines.
func (h *OrderHandler) ReplaceLines(c *gin.Context) {
	merchantID, ok := middleware.ActorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("order id must be a UUID"))
		return
	}

	var req dto.ReplaceLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	lines, err := parseOrderLines(req.Lines)
	if err != nil {
		response.Error(c, err)
		return
	}

	order, orderLines, err := h.orderSvc.ReplaceLines(c.Request.Context(), ports.ReplaceLinesRequest{
		MerchantID: merchantID,
		OrderID:    orderID,
		Lines:      lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order, orderLines))
}

// parseOrderLines converts incoming line DTOs, parsing unit prices.
func parseOrderLines(in []dto.OrderLineInput) ([]ports.OrderLineInput, error) {
	lines := make([]ports.OrderLineInput, 0, len(in))
	for i := range in {
		price, err := dto.ParseAmount(in[i].UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ports.OrderLineInput{
			Name:      in[i].Name,
			Quantity:  in[i].Quantity,
			UnitPrice: price,
		})
	}
	return lines, nil
}

// toOrderResponse converts an order and its line snapshot to the DTO.
func toOrderResponse(order *domain.Order, lines []domain.OrderLine) dto.OrderResponse {
	items := make([]dto.OrderLineResponse, 0, len(lines))
	for i := range lines {
		items = append(items, dto.OrderLineResponse{
			Name:      lines[i].Name,
			Quantity:  lines[i].Quantity,
			UnitPrice: lines[i].UnitPrice.StringFixed(2),
			LineTotal: lines[i].LineTotal.StringFixed(2),
		})
	}

	return dto.OrderResponse{
		ID:               order.ID.String(),
		Total:            order.Total.StringFixed(2),
		CommissionRate:   order.CommissionRate.String(),
		CommissionAmount: order.CommissionAmount.StringFixed(2),
		PaymentMethod:    order.PaymentMethod,
		Status:           string(order.Status),
		LineVersion:      order.LineVersion,
		Lines:            items,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}
}

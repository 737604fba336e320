package service

import (
	"context"
	"fmt"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderServiceImpl implements ports.OrderService.
type OrderServiceImpl struct {
	orderRepo    ports.OrderRepository
	merchantRepo ports.MerchantRepository
	auditSvc     ports.AuditService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(
	orderRepo ports.OrderRepository,
	merchantRepo ports.MerchantRepository,
	auditSvc ports.AuditService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderRepo:    orderRepo,
		merchantRepo: merchantRepo,
		auditSvc:     auditSvc,
		transactor:   transactor,
		log:          log,
	}
}

// Create builds an order from its line items, computing the platform
// commission from the merchant's subscription tier. Header and version-1
// lines are written in one DB transaction.
func (s *OrderServiceImpl) Create(ctx context.Context, req ports.CreateOrderRequest) (*domain.Order, []domain.OrderLine, error) {
	if len(req.Lines) == 0 {
		return nil, nil, apperror.ErrEmptyOrder()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, nil, apperror.ErrNotFound("merchant")
	}

	now := time.Now().UTC()
	orderID := uuid.New()
	lines, err := buildOrderLines(orderID, 1, req.Lines)
	if err != nil {
		return nil, nil, err
	}

	total := domain.OrderTotal(lines)
	commission, rate, err := domain.CommissionFor(merchant.Tier, total)
	if err != nil {
		return nil, nil, apperror.ErrUnknownTier(string(merchant.Tier))
	}

	order := &domain.Order{
		ID:               orderID,
		MerchantID:       req.MerchantID,
		Total:            total,
		CommissionRate:   rate,
		CommissionAmount: commission,
		PaymentMethod:    req.PaymentMethod,
		Status:           domain.OrderStatusPending,
		LineVersion:      1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.orderRepo.Create(ctx, dbTx, order, lines); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("create order: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &req.MerchantID,
		ActorType:    ports.ActorTypeMerchant,
		Action:       domain.AuditActionCreateOrder,
		ResourceType: "order",
		ResourceID:   order.ID.String(),
		CreatedAt:    now,
	})

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("total", total.String()).
		Str("commission", commission.String()).
		Msg("order created")

	return order, lines, nil
}

// ReplaceLines swaps an order's line items for a new set. The new snapshot is
// written at line_version+1 and the header pointer flips in the same DB
// transaction, so a concurrent reader always joins against a complete
// version. Superseded snapshots are purged after the flip.
func (s *OrderServiceImpl) ReplaceLines(ctx context.Context, req ports.ReplaceLinesRequest) (*domain.Order, []domain.OrderLine, error) {
	if len(req.Lines) == 0 {
		return nil, nil, apperror.ErrEmptyOrder()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, nil, apperror.ErrNotFound("merchant")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orderRepo.GetByIDForUpdate(ctx, dbTx, req.OrderID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil {
		return nil, nil, apperror.ErrNotFound("order")
	}
	if order.MerchantID != req.MerchantID {
		return nil, nil, apperror.ErrForbidden()
	}
	if order.Status != domain.OrderStatusPending {
		return nil, nil, apperror.Validation("Only pending orders can be modified")
	}

	newVersion := order.LineVersion + 1
	lines, err := buildOrderLines(order.ID, newVersion, req.Lines)
	if err != nil {
		return nil, nil, err
	}

	total := domain.OrderTotal(lines)
	commission, rate, err := domain.CommissionFor(merchant.Tier, total)
	if err != nil {
		return nil, nil, apperror.ErrUnknownTier(string(merchant.Tier))
	}

	if err := s.orderRepo.InsertLines(ctx, dbTx, lines); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("insert lines: %w", err))
	}

	order.Total = total
	order.CommissionRate = rate
	order.CommissionAmount = commission
	order.LineVersion = newVersion
	order.UpdatedAt = time.Now().UTC()

	if err := s.orderRepo.UpdateSnapshot(ctx, dbTx, order); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("update order: %w", err))
	}
	if err := s.orderRepo.PurgeLinesBelow(ctx, dbTx, order.ID, newVersion); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("purge lines: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &req.MerchantID,
		ActorType:    ports.ActorTypeMerchant,
		Action:       domain.AuditActionReplaceLines,
		ResourceType: "order",
		ResourceID:   order.ID.String(),
		CreatedAt:    order.UpdatedAt,
	})

	s.log.Info().
		Str("order_id", order.ID.String()).
		Int("line_version", newVersion).
		Str("total", total.String()).
		Msg("order lines replaced")

	return order, lines, nil
}

// Get returns an order header with its current-version lines, owner-checked.
func (s *OrderServiceImpl) Get(ctx context.Context, merchantID, orderID uuid.UUID) (*domain.Order, []domain.OrderLine, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, nil, apperror.ErrNotFound("order")
	}
	if order.MerchantID != merchantID {
		return nil, nil, apperror.ErrForbidden()
	}

	lines, err := s.orderRepo.GetLines(ctx, orderID, order.LineVersion)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get lines: %w", err))
	}
	return order, lines, nil
}

// buildOrderLines validates and materializes incoming line items.
func buildOrderLines(orderID uuid.UUID, version int, inputs []ports.OrderLineInput) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 || !in.UnitPrice.IsPositive() {
			return nil, apperror.ErrInvalidAmount()
		}
		lines = append(lines, domain.OrderLine{
			ID:        uuid.New(),
			OrderID:   orderID,
			Version:   version,
			Name:      in.Name,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			LineTotal: in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		})
	}
	return lines, nil
}

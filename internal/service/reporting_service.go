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
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	log        zerolog.Logger
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	log zerolog.Logger,
) ports.ReportingService {
	return &reportingService{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		log:        log,
	}
}

// GetDashboardStats returns aggregated transaction statistics for the
// merchant's wallet over the given period (day, week, month, all).
func (s *reportingService) GetDashboardStats(ctx context.Context, merchantID uuid.UUID, period string) (*ports.TransactionStats, error) {
	periodStart, err := resolvePeriodStart(period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByOwner(ctx, domain.OwnerTypeMerchant, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	stats, err := s.txRepo.GetStats(ctx, wallet.ID, periodStart)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction stats: %w", err))
	}
	return stats, nil
}

// ListTransactions returns a page of ledger legs for the owner's wallet.
func (s *reportingService) ListTransactions(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, 0, apperror.ErrNotFound("Wallet")
	}

	params.WalletID = wallet.ID
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	transactions, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return transactions, total, nil
}

// resolvePeriodStart translates a period keyword into a Unix timestamp
// lower bound. "all" returns nil (no bound).
func resolvePeriodStart(period string, now time.Time) (*int64, error) {
	var start time.Time
	switch period {
	case "day":
		start = now.Truncate(24 * time.Hour)
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	case "all", "":
		return nil, nil
	default:
		return nil, apperror.Validation("period must be one of: day, week, month, all")
	}
	ts := start.Unix()
	return &ts, nil
}

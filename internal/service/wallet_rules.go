package service

import (
	"context"
	"fmt"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// lockWalletPair locks two wallets in wallet-id order so that concurrent
// settlements and transfers touching the same pair cannot deadlock.
// Returns the wallets in the order the caller named them.
func lockWalletPair(ctx context.Context, dbTx pgx.Tx, walletRepo ports.WalletRepository, firstID, secondID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	lockOrder := []uuid.UUID{firstID, secondID}
	if secondID.String() < firstID.String() {
		lockOrder = []uuid.UUID{secondID, firstID}
	}

	locked := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range lockOrder {
		w, err := walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, nil, apperror.ErrNotFound("wallet")
		}
		locked[id] = w
	}
	return locked[firstID], locked[secondID], nil
}

// checkPin enforces the redis lockout and verifies the PIN against hash.
// Failures count toward the lockout; success resets it.
func checkPin(ctx context.Context, lockout ports.PinLockout, hashSvc ports.HashService, log zerolog.Logger, lockoutKey, pin, hash string) error {
	locked, err := lockout.Locked(ctx, lockoutKey)
	if err != nil {
		log.Warn().Err(err).Msg("pin lockout check failed, continuing")
	}
	if locked {
		return apperror.ErrPinLocked()
	}

	ok, err := hashSvc.Verify(pin, hash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		if err := lockout.RecordFailure(ctx, lockoutKey); err != nil {
			log.Warn().Err(err).Msg("failed to record pin failure")
		}
		return apperror.ErrInvalidPin()
	}

	if err := lockout.Reset(ctx, lockoutKey); err != nil {
		log.Warn().Err(err).Msg("failed to reset pin lockout")
	}
	return nil
}

// checkSpendingLimits enforces the wallet's optional daily and monthly debit
// caps using sums consistent with the row locks already held.
func checkSpendingLimits(ctx context.Context, dbTx pgx.Tx, txRepo ports.TransactionRepository, w *domain.Wallet, amount decimal.Decimal, now time.Time) error {
	if w.DailyLimit != nil {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		spent, err := txRepo.SumDebitsSince(ctx, dbTx, w.ID, dayStart)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("sum daily debits: %w", err))
		}
		if spent.Add(amount).GreaterThan(*w.DailyLimit) {
			return apperror.ErrDailyLimitExceeded()
		}
	}
	if w.MonthlyLimit != nil {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		spent, err := txRepo.SumDebitsSince(ctx, dbTx, w.ID, monthStart)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("sum monthly debits: %w", err))
		}
		if spent.Add(amount).GreaterThan(*w.MonthlyLimit) {
			return apperror.ErrMonthlyLimitExceeded()
		}
	}
	return nil
}

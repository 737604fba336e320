package postgres

import (
	"context"
	"errors"
	"fmt"

	"bitdash-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const walletFields = `id, owner_type, owner_id, currency, balance::text,
	daily_limit::text, monthly_limit::text, active, pin_hash, last_activity_at, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_type, owner_id, currency, balance, daily_limit, monthly_limit, active, pin_hash, last_activity_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerType, w.OwnerID, w.Currency, w.Balance.String(),
		decimalPtrArg(w.DailyLimit), decimalPtrArg(w.MonthlyLimit),
		w.Active, w.PinHash, w.LastActivityAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletFields + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByOwner fetches a wallet by its owner (non-locking read).
func (r *WalletRepo) GetByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletFields + ` FROM wallets WHERE owner_type = $1 AND owner_id = $2`
	return scanWallet(r.pool.QueryRow(ctx, query, ownerType, ownerID))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletFields + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// GetByOwnerForUpdate fetches a wallet by owner with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerType domain.OwnerType, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletFields + ` FROM wallets WHERE owner_type = $1 AND owner_id = $2 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, ownerType, ownerID))
}

// Debit subtracts amount from a wallet balance within a transaction.
// The non-negative balance invariant is enforced in SQL; the boolean result
// reports whether the update applied.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (bool, error) {
	query := `UPDATE wallets SET balance = balance - $1, last_activity_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, query, amount.String(), walletID)
	if err != nil {
		return false, fmt.Errorf("debit wallet: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Credit adds amount to a wallet balance within a transaction.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance + $1, last_activity_at = NOW(), updated_at = NOW()
		WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount.String(), walletID)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// SetActive toggles a wallet's active flag.
func (r *WalletRepo) SetActive(ctx context.Context, walletID uuid.UUID, active bool) error {
	query := `UPDATE wallets SET active = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, active, walletID)
	if err != nil {
		return fmt.Errorf("set wallet active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// scanWallet scans a single wallet row, converting numeric text to decimals.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var balance string
	var daily, monthly *string

	err := row.Scan(
		&w.ID, &w.OwnerType, &w.OwnerID, &w.Currency, &balance,
		&daily, &monthly, &w.Active, &w.PinHash, &w.LastActivityAt,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}

	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse wallet balance: %w", err)
	}
	if w.DailyLimit, err = decimalPtr(daily); err != nil {
		return nil, fmt.Errorf("parse daily limit: %w", err)
	}
	if w.MonthlyLimit, err = decimalPtr(monthly); err != nil {
		return nil, fmt.Errorf("parse monthly limit: %w", err)
	}
	return w, nil
}

func decimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalPtrArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

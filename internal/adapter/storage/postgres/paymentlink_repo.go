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

const paymentLinkFields = `id, code, merchant_id, amount::text, currency, status, expires_at,
	pin_hash, metadata, completed_at, payer_wallet_id, debit_tx_id, credit_tx_id, created_at, updated_at`

// PaymentLinkRepo implements ports.PaymentLinkRepository.
type PaymentLinkRepo struct {
	pool Pool
}

// NewPaymentLinkRepo creates a new PaymentLinkRepo.
func NewPaymentLinkRepo(pool Pool) *PaymentLinkRepo {
	return &PaymentLinkRepo{pool: pool}
}

// Create inserts a new payment link.
func (r *PaymentLinkRepo) Create(ctx context.Context, l *domain.PaymentLink) error {
	query := `INSERT INTO payment_links (id, code, merchant_id, amount, currency, status, expires_at, pin_hash, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.Code, l.MerchantID, decimalPtrArg(l.Amount), l.Currency,
		l.Status, l.ExpiresAt, l.PinHash, l.Metadata, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment link: %w", err)
	}
	return nil
}

// GetByCode fetches a payment link by its public code (non-locking read).
func (r *PaymentLinkRepo) GetByCode(ctx context.Context, code string) (*domain.PaymentLink, error) {
	query := `SELECT ` + paymentLinkFields + ` FROM payment_links WHERE code = $1`
	return scanPaymentLink(r.pool.QueryRow(ctx, query, code))
}

// GetByCodeForUpdate fetches a payment link by code with pessimistic locking.
// This MUST be called within a transaction.
func (r *PaymentLinkRepo) GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*domain.PaymentLink, error) {
	query := `SELECT ` + paymentLinkFields + ` FROM payment_links WHERE code = $1 FOR UPDATE`
	return scanPaymentLink(tx.QueryRow(ctx, query, code))
}

// MarkExpired flips an ACTIVE link to EXPIRED within a transaction.
func (r *PaymentLinkRepo) MarkExpired(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `UPDATE payment_links SET status = 'EXPIRED', updated_at = NOW() WHERE id = $1 AND status = 'ACTIVE'`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark link expired: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Expire flips an ACTIVE link to EXPIRED outside any transaction. Used by
// read paths that notice a lapsed deadline.
func (r *PaymentLinkRepo) Expire(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE payment_links SET status = 'EXPIRED', updated_at = NOW() WHERE id = $1 AND status = 'ACTIVE'`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("expire link: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Complete transitions an ACTIVE link to COMPLETED, recording settlement
// details. The status guard makes completion single-shot even under
// concurrent settles.
func (r *PaymentLinkRepo) Complete(ctx context.Context, tx pgx.Tx, id uuid.UUID, c domain.LinkCompletion) (bool, error) {
	query := `UPDATE payment_links SET status = 'COMPLETED', completed_at = $1, payer_wallet_id = $2,
		debit_tx_id = $3, credit_tx_id = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'ACTIVE'`

	tag, err := tx.Exec(ctx, query, c.CompletedAt, c.PayerWalletID, c.DebitTxID, c.CreditTxID, id)
	if err != nil {
		return false, fmt.Errorf("complete link: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByMerchant returns a merchant's links, newest first.
func (r *PaymentLinkRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.PaymentLink, error) {
	query := `SELECT ` + paymentLinkFields + ` FROM payment_links
		WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payment links: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentLink
	for rows.Next() {
		l, err := scanPaymentLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment links: %w", err)
	}
	return out, nil
}

func scanPaymentLink(row pgx.Row) (*domain.PaymentLink, error) {
	l := &domain.PaymentLink{}
	var amount *string

	err := row.Scan(
		&l.ID, &l.Code, &l.MerchantID, &amount, &l.Currency, &l.Status, &l.ExpiresAt,
		&l.PinHash, &l.Metadata, &l.CompletedAt, &l.PayerWalletID, &l.DebitTxID, &l.CreditTxID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment link: %w", err)
	}

	if amount != nil {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, fmt.Errorf("parse link amount: %w", err)
		}
		l.Amount = &d
	}
	return l, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionFields = `id, reference_id, wallet_id, counterparty_wallet_id, pair_id, direction,
	amount::text, currency, transaction_type, status, payment_link_id, order_id, client_ip, metadata, created_at, processed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger entry within a transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference_id, wallet_id, counterparty_wallet_id, pair_id, direction,
		amount, currency, transaction_type, status, payment_link_id, order_id, client_ip, metadata, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.ReferenceID, t.WalletID, t.CounterpartyWalletID, t.PairID, t.Direction,
		t.Amount.String(), t.Currency, t.TransactionType, t.Status,
		t.PaymentLinkID, t.OrderID, t.ClientIP, t.Metadata, t.CreatedAt, t.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a single ledger entry.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionFields + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// SumDebitsSince sums completed debit legs for a wallet since the given time.
// Runs inside the caller's transaction so the figure is consistent with the
// row locks already held.
func (r *TransactionRepo) SumDebitsSince(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0)::text FROM transactions
		WHERE wallet_id = $1 AND direction = 'DEBIT' AND status = 'COMPLETED' AND created_at >= $2`

	var total string
	if err := tx.QueryRow(ctx, query, walletID, since).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum debits: %w", err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse debit total: %w", err)
	}
	return d, nil
}

// List returns a page of ledger entries for a wallet, newest first.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	where := `WHERE wallet_id = $1`
	args := []any{params.WalletID}

	if params.Status != nil {
		args = append(args, *params.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if params.Type != nil {
		args = append(args, *params.Type)
		where += fmt.Sprintf(" AND transaction_type = $%d", len(args))
	}
	if params.From != nil {
		args = append(args, time.Unix(*params.From, 0))
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if params.To != nil {
		args = append(args, time.Unix(*params.To, 0))
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionFields, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

// GetStats aggregates ledger figures for a wallet, optionally limited to
// entries created at or after periodStart (unix seconds).
func (r *TransactionRepo) GetStats(ctx context.Context, walletID uuid.UUID, periodStart *int64) (*ports.TransactionStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		COUNT(*) FILTER (WHERE status = 'FAILED'),
		COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT' AND status = 'COMPLETED'), 0)::text,
		COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT' AND status = 'COMPLETED'), 0)::text,
		COUNT(*) FILTER (WHERE payment_link_id IS NOT NULL AND direction = 'CREDIT' AND status = 'COMPLETED')
		FROM transactions WHERE wallet_id = $1 AND ($2::bigint IS NULL OR created_at >= to_timestamp($2))`

	stats := &ports.TransactionStats{}
	var credited, debited string
	err := r.pool.QueryRow(ctx, query, walletID, periodStart).Scan(
		&stats.TotalTransactions, &stats.Completed, &stats.Failed,
		&credited, &debited, &stats.SettledLinks,
	)
	if err != nil {
		return nil, fmt.Errorf("transaction stats: %w", err)
	}
	if stats.TotalCredited, err = decimal.NewFromString(credited); err != nil {
		return nil, fmt.Errorf("parse credited total: %w", err)
	}
	if stats.TotalDebited, err = decimal.NewFromString(debited); err != nil {
		return nil, fmt.Errorf("parse debited total: %w", err)
	}
	return stats, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var amount string

	err := row.Scan(
		&t.ID, &t.ReferenceID, &t.WalletID, &t.CounterpartyWalletID, &t.PairID, &t.Direction,
		&amount, &t.Currency, &t.TransactionType, &t.Status,
		&t.PaymentLinkID, &t.OrderID, &t.ClientIP, &t.Metadata, &t.CreatedAt, &t.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	return t, nil
}

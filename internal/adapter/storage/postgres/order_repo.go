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

const orderFields = `id, merchant_id, total::text, commission_rate::text, commission_amount::text,
	payment_method, status, line_version, created_at, updated_at`

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts an order and its initial line snapshot in one transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order, lines []domain.OrderLine) error {
	query := `INSERT INTO orders (id, merchant_id, total, commission_rate, commission_amount, payment_method, status, line_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.MerchantID, o.Total.String(), o.CommissionRate.String(), o.CommissionAmount.String(),
		o.PaymentMethod, o.Status, o.LineVersion, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return r.InsertLines(ctx, tx, lines)
}

// GetByID fetches an order header (without locking).
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderFields + ` FROM orders WHERE id = $1`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches an order header with pessimistic locking.
// This MUST be called within a transaction.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderFields + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRow(ctx, query, id))
}

// GetLines returns the line snapshot for one version of an order.
func (r *OrderRepo) GetLines(ctx context.Context, orderID uuid.UUID, version int) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, version, name, quantity, unit_price::text, line_total::text
		FROM order_lines WHERE order_id = $1 AND version = $2 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID, version)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		var unitPrice, lineTotal string
		if err := rows.Scan(&line.ID, &line.OrderID, &line.Version, &line.Name, &line.Quantity, &unitPrice, &lineTotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if line.LineTotal, err = decimal.NewFromString(lineTotal); err != nil {
			return nil, fmt.Errorf("parse line total: %w", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return out, nil
}

// InsertLines writes a line snapshot within a transaction.
func (r *OrderRepo) InsertLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderLine) error {
	query := `INSERT INTO order_lines (id, order_id, version, name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, line := range lines {
		_, err := tx.Exec(ctx, query,
			line.ID, line.OrderID, line.Version, line.Name, line.Quantity,
			line.UnitPrice.String(), line.LineTotal.String(),
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// UpdateSnapshot persists a recomputed order header after its line pointer
// moved to a new version.
func (r *OrderRepo) UpdateSnapshot(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `UPDATE orders SET total = $1, commission_rate = $2, commission_amount = $3, line_version = $4, updated_at = NOW()
		WHERE id = $5`

	tag, err := tx.Exec(ctx, query,
		o.Total.String(), o.CommissionRate.String(), o.CommissionAmount.String(), o.LineVersion, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", o.ID)
	}
	return nil
}

// PurgeLinesBelow removes line snapshots older than the given version.
// Runs after the version pointer has moved so readers never see a gap.
func (r *OrderRepo) PurgeLinesBelow(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, version int) error {
	query := `DELETE FROM order_lines WHERE order_id = $1 AND version < $2`

	if _, err := tx.Exec(ctx, query, orderID, version); err != nil {
		return fmt.Errorf("purge order lines: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	var total, rate, commission string

	err := row.Scan(
		&o.ID, &o.MerchantID, &total, &rate, &commission,
		&o.PaymentMethod, &o.Status, &o.LineVersion, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse order total: %w", err)
	}
	if o.CommissionRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse commission rate: %w", err)
	}
	if o.CommissionAmount, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("parse commission amount: %w", err)
	}
	return o, nil
}

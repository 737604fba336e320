package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a merchant sale with a platform commission computed from the
// merchant's subscription tier at creation time. LineVersion points at the
// current line-item snapshot: line replacement writes a new version and flips
// this pointer in the same database transaction, so readers never observe an
// order with zero lines.
type Order struct {
	ID               uuid.UUID       `json:"id"`
	MerchantID       uuid.UUID       `json:"merchant_id"`
	Total            decimal.Decimal `json:"total"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	PaymentMethod    string          `json:"payment_method"`
	Status           OrderStatus     `json:"status"`
	LineVersion      int             `json:"line_version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderLine is one item of an order snapshot.
type OrderLine struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Version   int             `json:"-"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderTotal sums the line totals of a snapshot.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].LineTotal)
	}
	return total
}

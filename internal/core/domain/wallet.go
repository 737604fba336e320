package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerType identifies which kind of profile owns a wallet.
type OwnerType string

const (
	OwnerTypeCustomer OwnerType = "CUSTOMER"
	OwnerTypeMerchant OwnerType = "MERCHANT"
)

// Wallet is a balance-bearing account attached to a customer or merchant.
// Balances are decimal with two fractional digits; a debit must never take
// the balance negative.
type Wallet struct {
	ID             uuid.UUID        `json:"id"`
	OwnerType      OwnerType        `json:"owner_type"`
	OwnerID        uuid.UUID        `json:"owner_id"`
	Currency       string           `json:"currency"`
	Balance        decimal.Decimal  `json:"balance"`
	DailyLimit     *decimal.Decimal `json:"daily_limit,omitempty"`
	MonthlyLimit   *decimal.Decimal `json:"monthly_limit,omitempty"`
	Active         bool             `json:"active"`
	PinHash        string           `json:"-"` // Argon2id, never expose
	LastActivityAt *time.Time       `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CanDebit reports whether the wallet holds at least amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

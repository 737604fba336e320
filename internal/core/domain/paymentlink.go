package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentLinkStatus represents the lifecycle state of a payment link.
type PaymentLinkStatus string

const (
	PaymentLinkStatusActive    PaymentLinkStatus = "ACTIVE"
	PaymentLinkStatusCompleted PaymentLinkStatus = "COMPLETED"
	PaymentLinkStatusExpired   PaymentLinkStatus = "EXPIRED"
)

// PaymentLink is a shareable, PIN-protected request for payment with an
// expiry. Amount nil means the payer supplies the amount at settlement time.
// Expiry is applied lazily on read or settlement, never by a background sweep.
type PaymentLink struct {
	ID            uuid.UUID         `json:"id"`
	Code          string            `json:"code"` // unique external identifier
	MerchantID    uuid.UUID         `json:"merchant_id"`
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	Currency      string            `json:"currency"`
	Status        PaymentLinkStatus `json:"status"`
	ExpiresAt     time.Time         `json:"expires_at"`
	PinHash       *string           `json:"-"` // optional; merchant wallet PIN applies when nil
	Metadata      *string           `json:"metadata,omitempty"` // JSON string
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	PayerWalletID *uuid.UUID        `json:"payer_wallet_id,omitempty"`
	DebitTxID     *uuid.UUID        `json:"debit_tx_id,omitempty"`
	CreditTxID    *uuid.UUID        `json:"credit_tx_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IsExpiredAt reports whether the link is past its expiry at the given time.
func (l *PaymentLink) IsExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// IsVariableAmount reports whether the payer must supply the amount.
func (l *PaymentLink) IsVariableAmount() bool {
	return l.Amount == nil
}

// LinkCompletion holds the fields written when a link settles.
type LinkCompletion struct {
	CompletedAt   time.Time
	PayerWalletID uuid.UUID
	DebitTxID     uuid.UUID
	CreditTxID    uuid.UUID
}

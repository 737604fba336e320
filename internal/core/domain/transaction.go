package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypePayment    TransactionType = "PAYMENT"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

// TransactionDirection marks which side of a movement a leg records.
type TransactionDirection string

const (
	DirectionDebit  TransactionDirection = "DEBIT"
	DirectionCredit TransactionDirection = "CREDIT"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger leg. A completed payment or transfer
// always produces two legs (one DEBIT, one CREDIT) with equal amount and
// currency, joined by PairID. Amounts are never mutated after creation.
type Transaction struct {
	ID                   uuid.UUID            `json:"id"`
	ReferenceID          string               `json:"reference_id"`
	WalletID             uuid.UUID            `json:"wallet_id"`
	CounterpartyWalletID *uuid.UUID           `json:"counterparty_wallet_id,omitempty"`
	PairID               uuid.UUID            `json:"pair_id"`
	Direction            TransactionDirection `json:"direction"`
	Amount               decimal.Decimal      `json:"amount"`
	Currency             string               `json:"currency"`
	TransactionType      TransactionType      `json:"transaction_type"`
	Status               TransactionStatus    `json:"status"`
	PaymentLinkID        *uuid.UUID           `json:"payment_link_id,omitempty"`
	OrderID              *uuid.UUID           `json:"order_id,omitempty"`
	ClientIP             string               `json:"client_ip,omitempty"`
	Metadata             *string              `json:"metadata,omitempty"` // JSON string
	CreatedAt            time.Time            `json:"created_at"`
	ProcessedAt          *time.Time           `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

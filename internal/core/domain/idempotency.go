package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog represents a cached operation result to prevent
// double-processing of settlements and transfers.
type IdempotencyLog struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"` // Cached response to return
	CreatedAt     time.Time `json:"created_at"`
}

// BuildSettleIdempotencyKey constructs the key for link settlement.
// One payer can settle a given link at most once.
func BuildSettleIdempotencyKey(linkCode string, payerID uuid.UUID) string {
	return "settle:" + linkCode + ":" + payerID.String()
}

// BuildTransferIdempotencyKey constructs the key for wallet transfers,
// scoped by the sender and the caller-supplied reference.
func BuildTransferIdempotencyKey(senderID uuid.UUID, referenceID string) string {
	return "transfer:" + senderID.String() + ":" + referenceID
}

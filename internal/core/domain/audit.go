package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister      AuditAction = "REGISTER"
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionCreateLink    AuditAction = "CREATE_LINK"
	AuditActionSettleLink    AuditAction = "SETTLE_LINK"
	AuditActionTransfer      AuditAction = "TRANSFER"
	AuditActionDeposit       AuditAction = "DEPOSIT"
	AuditActionWithdrawal    AuditAction = "WITHDRAWAL"
	AuditActionCreateOrder   AuditAction = "CREATE_ORDER"
	AuditActionReplaceLines  AuditAction = "REPLACE_ORDER_LINES"
	AuditActionWalletStatus  AuditAction = "WALLET_STATUS"
	AuditActionRotateKeys    AuditAction = "ROTATE_KEYS"
	AuditActionUpdateWebhook AuditAction = "UPDATE_WEBHOOK"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	ActorType    string      `json:"actor_type,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

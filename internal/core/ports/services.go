package ports

import (
	"context"
	"time"

	"bitdash-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor types carried in JWT claims.
const (
	ActorTypeCustomer = "customer"
	ActorTypeMerchant = "merchant"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// HashService handles password and PIN hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(actorID uuid.UUID, actorType string, accessKey string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ActorID   uuid.UUID
	ActorType string
	AccessKey string // merchant actors only
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, merchantID string, nonce string, ttl time.Duration) (bool, error)
}

// PinLockout tracks consecutive failed PIN attempts per subject.
type PinLockout interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// --- Service Ports (Business Logic) ---

// SettlementService moves funds from payer to payee for a payment link and
// records the corresponding transaction pair.
type SettlementService interface {
	// Settle returns the payer-side (debit) transaction leg.
	Settle(ctx context.Context, req SettleRequest) (*domain.Transaction, error)
}

// SettleRequest holds validated input for link settlement.
type SettleRequest struct {
	Code     string
	PayerID  uuid.UUID // customer id
	Pin      string
	Amount   *decimal.Decimal // required for variable-amount links
	ClientIP string
}

// WalletService covers wallet reads and single- or dual-wallet movements.
type WalletService interface {
	GetBalance(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (decimal.Decimal, string, error)
	Deposit(ctx context.Context, req WalletMovementRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req WalletMovementRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	VerifyPin(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, pin string) error
	SetActive(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, active bool) error
}

// WalletMovementRequest holds input for deposits and withdrawals.
type WalletMovementRequest struct {
	OwnerType domain.OwnerType
	OwnerID   uuid.UUID
	Amount    decimal.Decimal
	ClientIP  string
}

// TransferRequest holds input for a customer-initiated wallet transfer.
type TransferRequest struct {
	SenderID          uuid.UUID // customer id
	RecipientWalletID uuid.UUID
	Amount            decimal.Decimal
	Pin               string
	ReferenceID       string // caller-supplied, idempotency scope
	ClientIP          string
}

// OrderService covers order creation with commission and versioned line
// replacement.
type OrderService interface {
	Create(ctx context.Context, req CreateOrderRequest) (*domain.Order, []domain.OrderLine, error)
	ReplaceLines(ctx context.Context, req ReplaceLinesRequest) (*domain.Order, []domain.OrderLine, error)
	Get(ctx context.Context, merchantID, orderID uuid.UUID) (*domain.Order, []domain.OrderLine, error)
}

// OrderLineInput is one incoming line item.
type OrderLineInput struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrderRequest holds input for order creation.
type CreateOrderRequest struct {
	MerchantID    uuid.UUID
	PaymentMethod string
	Lines         []OrderLineInput
}

// ReplaceLinesRequest holds input for replacing an order's line snapshot.
type ReplaceLinesRequest struct {
	MerchantID uuid.UUID
	OrderID    uuid.UUID
	Lines      []OrderLineInput
}

// PaymentLinkService covers link creation and reads.
type PaymentLinkService interface {
	// Create returns the link and its shareable URL.
	Create(ctx context.Context, req CreateLinkRequest) (*domain.PaymentLink, string, error)
	// GetPublic applies lazy expiry before returning the link.
	GetPublic(ctx context.Context, code string) (*domain.PaymentLink, error)
	GetForMerchant(ctx context.Context, merchantID uuid.UUID, code string) (*domain.PaymentLink, error)
	List(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.PaymentLink, error)
}

// CreateLinkRequest holds validated input for link creation.
type CreateLinkRequest struct {
	MerchantID uuid.UUID
	Amount     *decimal.Decimal // nil = payer supplies the amount
	Currency   string
	ExpiresAt  time.Time
	Pin        *string
	Metadata   *string
}

// AuthService defines registration and login for both actor kinds.
// Registration creates the profile and its wallet together.
type AuthService interface {
	RegisterMerchant(ctx context.Context, req RegisterMerchantRequest) (*RegisterMerchantResponse, error)
	RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*RegisterCustomerResponse, error)
	LoginMerchant(ctx context.Context, username, password string) (string, time.Time, error)
	LoginCustomer(ctx context.Context, username, password string) (string, time.Time, error)
}

// RegisterMerchantRequest holds input for merchant registration.
type RegisterMerchantRequest struct {
	Username     string
	Password     string
	MerchantName string
	Tier         domain.SubscriptionTier
	WalletPin    string
	Currency     string
	WebhookURL   *string
}

// RegisterMerchantResponse holds the registration result shown once.
type RegisterMerchantResponse struct {
	MerchantID uuid.UUID
	WalletID   uuid.UUID
	AccessKey  string
	SecretKey  string // Plaintext, shown only at registration
}

// RegisterCustomerRequest holds input for customer registration.
type RegisterCustomerRequest struct {
	Username  string
	Password  string
	FullName  string
	WalletPin string
	Currency  string
}

// RegisterCustomerResponse holds the customer registration result.
type RegisterCustomerResponse struct {
	CustomerID uuid.UUID
	WalletID   uuid.UUID
}

// ReportingService defines dashboard/reporting business logic.
type ReportingService interface {
	GetDashboardStats(ctx context.Context, merchantID uuid.UUID, period string) (*TransactionStats, error)
	ListTransactions(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// WebhookService defines async settlement notification delivery.
type WebhookService interface {
	EnqueueSettlement(ctx context.Context, link *domain.PaymentLink, creditTx *domain.Transaction) error
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// MerchantManagementService covers merchant self-service.
type MerchantManagementService interface {
	GetProfile(ctx context.Context, merchantID uuid.UUID) (*MerchantProfile, error)
	UpdateWebhookURL(ctx context.Context, merchantID uuid.UUID, webhookURL *string) error
	RotateKeys(ctx context.Context, merchantID uuid.UUID) (*RotateKeysResponse, error)
}

// MerchantProfile is the dashboard view of a merchant account.
type MerchantProfile struct {
	ID           uuid.UUID
	Username     string
	MerchantName string
	Tier         domain.SubscriptionTier
	WebhookURL   *string
	Status       domain.MerchantStatus
	CreatedAt    string
}

// RotateKeysResponse holds freshly rotated API keys (shown once).
type RotateKeysResponse struct {
	AccessKey string
	SecretKey string
}

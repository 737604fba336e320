package ports

import (
	"context"
	"time"

	"bitdash-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines persistence operations for customer profiles.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByUsername(ctx context.Context, username string) (*domain.Customer, error)
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByAccessKey(ctx context.Context, accessKey string) (*domain.Merchant, error)
	GetByUsername(ctx context.Context, username string) (*domain.Merchant, error)
	Update(ctx context.Context, merchant *domain.Merchant) error
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking. Debit carries the non-negative balance guard in SQL and reports
// whether the update applied.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerType domain.OwnerType, ownerID uuid.UUID) (*domain.Wallet, error)
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error
	SetActive(ctx context.Context, walletID uuid.UUID, active bool) error
}

// TransactionRepository defines persistence operations for ledger legs.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	SumDebitsSince(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, since time.Time) (decimal.Decimal, error)
	// Reporting queries
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, walletID uuid.UUID, periodStart *int64) (*TransactionStats, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	WalletID uuid.UUID
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// TransactionStats holds aggregated statistics for the dashboard.
type TransactionStats struct {
	TotalTransactions int64
	Completed         int64
	Failed            int64
	TotalCredited     decimal.Decimal // Sum of completed credit legs
	TotalDebited      decimal.Decimal // Sum of completed debit legs
	SettledLinks      int64           // Completed PAYMENT credit legs
}

// PaymentLinkRepository defines persistence operations for payment links.
// The status transitions are conditional updates: MarkExpired and Complete
// only apply while the link is still ACTIVE and report whether they did.
type PaymentLinkRepository interface {
	Create(ctx context.Context, link *domain.PaymentLink) error
	GetByCode(ctx context.Context, code string) (*domain.PaymentLink, error)
	GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*domain.PaymentLink, error)
	MarkExpired(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	Expire(ctx context.Context, id uuid.UUID) (bool, error)
	Complete(ctx context.Context, tx pgx.Tx, id uuid.UUID, completion domain.LinkCompletion) (bool, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.PaymentLink, error)
}

// OrderRepository defines persistence operations for orders and their
// versioned line snapshots.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order, lines []domain.OrderLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	GetLines(ctx context.Context, orderID uuid.UUID, version int) ([]domain.OrderLine, error)
	InsertLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderLine) error
	UpdateSnapshot(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	PurgeLinesBelow(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, version int) error
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository defines persistence for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

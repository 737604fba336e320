package dto

// ---- Auth ----

// RegisterMerchantRequest is the request body for merchant registration.
type RegisterMerchantRequest struct {
	Username     string  `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password     string  `json:"password" binding:"required,min=8,max=128"`
	MerchantName string  `json:"merchant_name" binding:"required,min=1,max=100"`
	Tier         string  `json:"tier" binding:"omitempty,oneof=FREE BASIC PREMIUM PRO"`
	WalletPin    string  `json:"wallet_pin" binding:"required,numeric,min=4,max=6"`
	Currency     string  `json:"currency" binding:"required,len=3"`
	WebhookURL   *string `json:"webhook_url,omitempty" binding:"omitempty,safe_url"`
}

// RegisterMerchantResponse carries the one-time API credentials.
type RegisterMerchantResponse struct {
	MerchantID string `json:"merchant_id"`
	WalletID   string `json:"wallet_id"`
	AccessKey  string `json:"access_key"`
	SecretKey  string `json:"secret_key"`
}

// RegisterCustomerRequest is the request body for customer registration.
type RegisterCustomerRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FullName  string `json:"full_name" binding:"required,min=1,max=100"`
	WalletPin string `json:"wallet_pin" binding:"required,numeric,min=4,max=6"`
	Currency  string `json:"currency" binding:"required,len=3"`
}

// RegisterCustomerResponse is the response body for customer registration.
type RegisterCustomerResponse struct {
	CustomerID string `json:"customer_id"`
	WalletID   string `json:"wallet_id"`
}

// LoginRequest is the request body for login (both actor kinds).
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ---- Payment links ----

// CreateLinkRequest is the request body for payment link creation.
// Amount nil creates a variable-amount link where the payer decides.
type CreateLinkRequest struct {
	Amount    *string `json:"amount,omitempty"`
	Currency  string  `json:"currency" binding:"required,len=3"`
	ExpiresAt *int64  `json:"expires_at,omitempty"` // Unix timestamp
	Pin       *string `json:"pin,omitempty" binding:"omitempty,numeric,min=4,max=6"`
	Metadata  *string `json:"metadata,omitempty"`
}

// PaymentLinkResponse is the merchant view of a payment link.
type PaymentLinkResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	URL         string  `json:"url,omitempty"`
	Amount      *string `json:"amount,omitempty"` // nil = payer supplies the amount
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	HasPin      bool    `json:"has_pin"`
	ExpiresAt   string  `json:"expires_at"`
	Metadata    *string `json:"metadata,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// PublicLinkResponse is the payer-facing view of a payment link.
type PublicLinkResponse struct {
	Code      string  `json:"code"`
	Amount    *string `json:"amount,omitempty"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	HasPin    bool    `json:"has_pin"`
	ExpiresAt string  `json:"expires_at"`
	Metadata  *string `json:"metadata,omitempty"`
}

// LinkListResponse wraps a paginated link list.
type LinkListResponse struct {
	Items    []PaymentLinkResponse `json:"items"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// SettleLinkRequest is the request body for settling a payment link.
type SettleLinkRequest struct {
	Pin    string  `json:"pin" binding:"required,numeric,min=4,max=6"`
	Amount *string `json:"amount,omitempty"` // required for variable-amount links
}

// ---- Wallets ----

// WalletBalanceResponse is the response for a balance query.
type WalletBalanceResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// WalletMovementRequest is the request body for deposits and withdrawals.
type WalletMovementRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	RecipientWalletID string `json:"recipient_wallet_id" binding:"required,uuid"`
	Amount            string `json:"amount" binding:"required"`
	Pin               string `json:"pin" binding:"required,numeric,min=4,max=6"`
	ReferenceID       string `json:"reference_id" binding:"required,max=100,safe_id"`
}

// VerifyPinRequest is the request body for a standalone PIN check.
type VerifyPinRequest struct {
	Pin string `json:"pin" binding:"required,numeric,min=4,max=6"`
}

// WalletStatusRequest is the request body for freezing or unfreezing a wallet.
type WalletStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// TransactionResponse is one ledger leg in API responses.
type TransactionResponse struct {
	ID                   string  `json:"id"`
	ReferenceID          string  `json:"reference_id,omitempty"`
	PairID               string  `json:"pair_id"`
	Direction            string  `json:"direction"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	TransactionType      string  `json:"transaction_type"`
	Status               string  `json:"status"`
	CounterpartyWalletID *string `json:"counterparty_wallet_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
	ProcessedAt          *string `json:"processed_at,omitempty"`
}

// ---- Orders ----

// OrderLineInput is one incoming line item.
type OrderLineInput struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

// CreateOrderRequest is the request body for order creation.
type CreateOrderRequest struct {
	PaymentMethod string           `json:"payment_method" binding:"required,max=50"`
	Lines         []OrderLineInput `json:"lines" binding:"required,min=1,dive"`
}

// ReplaceLinesRequest is the request body for replacing an order's lines.
type ReplaceLinesRequest struct {
	Lines []OrderLineInput `json:"lines" binding:"required,min=1,dive"`
}

// OrderLineResponse is one line of an order snapshot.
type OrderLineResponse struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// OrderResponse is the full order view including the current line snapshot.
type OrderResponse struct {
	ID               string              `json:"id"`
	Total            string              `json:"total"`
	CommissionRate   string              `json:"commission_rate"`
	CommissionAmount string              `json:"commission_amount"`
	PaymentMethod    string              `json:"payment_method"`
	Status           string              `json:"status"`
	LineVersion      int                 `json:"line_version"`
	Lines            []OrderLineResponse `json:"lines"`
	CreatedAt        string              `json:"created_at"`
}

// ---- Dashboard ----

// DashboardStatsResponse is the response for dashboard statistics.
type DashboardStatsResponse struct {
	TotalTransactions int64  `json:"total_transactions"`
	Completed         int64  `json:"completed"`
	Failed            int64  `json:"failed"`
	TotalCredited     string `json:"total_credited"`
	TotalDebited      string `json:"total_debited"`
	SettledLinks      int64  `json:"settled_links"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ---- Merchant self-service ----

// UpdateWebhookRequest is the request body for setting or clearing the
// settlement webhook URL.
type UpdateWebhookRequest struct {
	WebhookURL *string `json:"webhook_url" binding:"omitempty,safe_url"`
}

// MerchantProfileResponse is the merchant's own account view.
type MerchantProfileResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	MerchantName string  `json:"merchant_name"`
	Tier         string  `json:"tier"`
	WebhookURL   *string `json:"webhook_url,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

// RotateKeysResponse carries the rotated API credentials (shown once).
type RotateKeysResponse struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Security & request signing (SEC) ----

func ErrInvalidAccessKey() *AppError {
	return New("SEC_001", "Invalid access key", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

// ---- Wallet (WAL) ----

func ErrInsufficientBalance() *AppError {
	return New("WAL_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_002", "Invalid amount", http.StatusBadRequest)
}

func ErrWalletInactive() *AppError {
	return New("WAL_003", "Wallet is inactive", http.StatusForbidden)
}

func ErrCurrencyMismatch() *AppError {
	return New("WAL_004", "Currency mismatch between wallets", http.StatusBadRequest)
}

func ErrDailyLimitExceeded() *AppError {
	return New("WAL_005", "Daily spending limit exceeded", http.StatusUnprocessableEntity)
}

func ErrMonthlyLimitExceeded() *AppError {
	return New("WAL_006", "Monthly spending limit exceeded", http.StatusUnprocessableEntity)
}

func ErrInvalidPin() *AppError {
	return New("WAL_007", "Invalid PIN", http.StatusForbidden)
}

func ErrPinLocked() *AppError {
	return New("WAL_008", "Too many failed PIN attempts, try again later", http.StatusTooManyRequests)
}

func ErrSelfTransfer() *AppError {
	return New("WAL_009", "Cannot transfer to the same wallet", http.StatusBadRequest)
}

// ---- Payment links (LNK) ----

func ErrLinkExpired() *AppError {
	return New("LNK_001", "Payment link has expired", http.StatusGone)
}

func ErrLinkCompleted() *AppError {
	return New("LNK_002", "Payment link has already been settled", http.StatusConflict)
}

func ErrLinkAmountRequired() *AppError {
	return New("LNK_003", "Amount is required for a variable-amount link", http.StatusBadRequest)
}

// ---- Orders & commission (ORD) ----

func ErrUnknownTier(tier string) *AppError {
	return New("ORD_001", fmt.Sprintf("Unrecognized subscription tier %q", tier), http.StatusInternalServerError)
}

func ErrEmptyOrder() *AppError {
	return New("ORD_002", "Order must contain at least one line item", http.StatusBadRequest)
}

// ---- Generic resources (RES) ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrDuplicateTransaction() *AppError {
	return New("RES_002", "Duplicate transaction", http.StatusConflict)
}

func ErrForbidden() *AppError {
	return New("RES_003", "You do not own this resource", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_004", "Account is suspended", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a WAL_002-style validation error.
func Validation(message string) *AppError {
	return New("WAL_002", message, http.StatusBadRequest)
}

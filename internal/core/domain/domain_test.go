package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionFor_TierRates(t *testing.T) {
	total := decimal.RequireFromString("1000.00")

	tests := []struct {
		name       string
		tier       SubscriptionTier
		commission string
		rate       string
	}{
		{"free", TierFree, "40.00", "0.04"},
		{"basic", TierBasic, "25.00", "0.025"},
		{"premium", TierPremium, "20.00", "0.02"},
		{"pro", TierPro, "15.00", "0.015"},
		{"empty defaults to free", "", "40.00", "0.04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commission, rate, err := CommissionFor(tt.tier, total)
			require.NoError(t, err)
			assert.True(t, commission.Equal(decimal.RequireFromString(tt.commission)),
				"commission = %s, want %s", commission, tt.commission)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.rate)))
		})
	}
}

func TestCommissionFor_UnknownTier(t *testing.T) {
	_, _, err := CommissionFor("PLATINUM", decimal.RequireFromString("100.00"))
	require.Error(t, err)

	var unknownErr *ErrUnknownTier
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, SubscriptionTier("PLATINUM"), unknownErr.Tier)
}

func TestCommissionFor_RoundsToTwoPlaces(t *testing.T) {
	// 33.33 * 0.015 = 0.49995 -> 0.50
	commission, _, err := CommissionFor(TierPro, decimal.RequireFromString("33.33"))
	require.NoError(t, err)
	assert.True(t, commission.Equal(decimal.RequireFromString("0.50")), "got %s", commission)
}

func TestWallet_CanDebit(t *testing.T) {
	w := &Wallet{Balance: decimal.RequireFromString("100.00")}

	assert.True(t, w.CanDebit(decimal.RequireFromString("99.99")))
	assert.True(t, w.CanDebit(decimal.RequireFromString("100.00")), "exact balance must be spendable")
	assert.False(t, w.CanDebit(decimal.RequireFromString("100.01")))
}

func TestMerchant_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		status MerchantStatus
		want   bool
	}{
		{"active", MerchantStatusActive, true},
		{"suspended", MerchantStatusSuspended, false},
		{"deactivated", MerchantStatusDeactivated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Merchant{Status: tt.status}
			assert.Equal(t, tt.want, m.IsActive())
		})
	}
}

func TestCustomer_IsActive(t *testing.T) {
	assert.True(t, (&Customer{Status: CustomerStatusActive}).IsActive())
	assert.False(t, (&Customer{Status: CustomerStatusSuspended}).IsActive())
}

func TestTransaction_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"completed", TransactionStatusCompleted, true},
		{"failed", TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsTerminal())
		})
	}
}

func TestPaymentLink_IsExpiredAt(t *testing.T) {
	now := time.Now()
	link := &PaymentLink{ExpiresAt: now}

	assert.False(t, link.IsExpiredAt(now.Add(-time.Second)))
	assert.False(t, link.IsExpiredAt(now), "expiry instant itself is not yet expired")
	assert.True(t, link.IsExpiredAt(now.Add(time.Second)))
}

func TestPaymentLink_IsVariableAmount(t *testing.T) {
	amt := decimal.RequireFromString("25.00")

	assert.True(t, (&PaymentLink{}).IsVariableAmount())
	assert.False(t, (&PaymentLink{Amount: &amt}).IsVariableAmount())
}

func TestOrderTotal(t *testing.T) {
	lines := []OrderLine{
		{LineTotal: decimal.RequireFromString("500.00")},
		{LineTotal: decimal.RequireFromString("250.50")},
		{LineTotal: decimal.RequireFromString("0.50")},
	}

	assert.True(t, OrderTotal(lines).Equal(decimal.RequireFromString("751.00")))
	assert.True(t, OrderTotal(nil).IsZero())
}

func TestIdempotencyKeys(t *testing.T) {
	payerID := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	key := BuildSettleIdempotencyKey("pl_abc123", payerID)
	assert.Equal(t, "settle:pl_abc123:11111111-2222-3333-4444-555555555555", key)

	key = BuildTransferIdempotencyKey(payerID, "ref-42")
	assert.Equal(t, "transfer:11111111-2222-3333-4444-555555555555:ref-42", key)
}

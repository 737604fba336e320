package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SubscriptionTier determines the platform commission rate for a merchant.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierBasic   SubscriptionTier = "BASIC"
	TierPremium SubscriptionTier = "PREMIUM"
	TierPro     SubscriptionTier = "PRO"
)

// commissionRates maps each tier to its commission rate.
var commissionRates = map[SubscriptionTier]decimal.Decimal{
	TierFree:    decimal.RequireFromString("0.04"),
	TierBasic:   decimal.RequireFromString("0.025"),
	TierPremium: decimal.RequireFromString("0.02"),
	TierPro:     decimal.RequireFromString("0.015"),
}

// ErrUnknownTier is returned when a tier value is present but not in the rate
// table. A missing tier defaults to FREE; an unrecognized one is treated as a
// configuration error rather than silently billed at the free rate.
type ErrUnknownTier struct {
	Tier SubscriptionTier
}

func (e *ErrUnknownTier) Error() string {
	return fmt.Sprintf("unknown subscription tier %q", string(e.Tier))
}

// CommissionFor computes the platform commission for an order total.
// It returns the commission amount rounded half-up to two decimal places and
// the rate that was applied, for audit.
func CommissionFor(tier SubscriptionTier, total decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if tier == "" {
		tier = TierFree
	}
	rate, ok := commissionRates[tier]
	if !ok {
		return decimal.Zero, decimal.Zero, &ErrUnknownTier{Tier: tier}
	}
	return total.Mul(rate).Round(2), rate, nil
}

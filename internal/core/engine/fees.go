package engine

import (
	"fmt"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InvestmentType selects the platform fee rate applied to an investment.
type InvestmentType string

const (
	InvestmentDirect    InvestmentType = "DIRECT"
	InvestmentSyndicate InvestmentType = "SYNDICATE"
)

// FeeSchedule holds the configured fee rates. It is plain data passed into
// every call; there is no process-wide fee configuration.
type FeeSchedule struct {
	// PlatformRates maps investment type to the platform's ad-valorem rate
	// (a fraction, 0.02 = 2%).
	PlatformRates map[InvestmentType]decimal.Decimal
	// PlatformMinimum is the floor a platform fee never goes below.
	PlatformMinimum domain.Money
	// CarryRate is the performance fee taken from profit only.
	CarryRate decimal.Decimal
	// ProcessingRate and ProcessingFixed follow the payment processor's
	// published formula: rate * amount + fixed.
	ProcessingRate  decimal.Decimal
	ProcessingFixed domain.Money
}

// PlatformFee is the platform's percentage-of-amount fee with a configured
// minimum floor.
func PlatformFee(s FeeSchedule, amount domain.Money, typ InvestmentType) (domain.Money, error) {
	if amount.IsNegative() {
		return domain.ZeroMoney, fmt.Errorf("%w: fee amount must not be negative, got %s", apperrors.ErrInvalidInput, amount)
	}
	rate, ok := s.PlatformRates[typ]
	if !ok {
		return domain.ZeroMoney, fmt.Errorf("%w: no platform rate configured for investment type %q", apperrors.ErrInvalidInput, typ)
	}
	fee := amount.Mul(rate)
	if fee.LessThan(s.PlatformMinimum) {
		fee = s.PlatformMinimum
	}
	return fee.Settle(), nil
}

// CarryFee is the performance fee: a percentage of profit only, zero on a
// loss or break-even position.
func CarryFee(s FeeSchedule, initialInvestment, currentValue domain.Money) (domain.Money, error) {
	if initialInvestment.IsNegative() || currentValue.IsNegative() {
		return domain.ZeroMoney, fmt.Errorf("%w: carry inputs must not be negative (initial %s, current %s)",
			apperrors.ErrInvalidInput, initialInvestment, currentValue)
	}
	profit := currentValue.Sub(initialInvestment)
	if !profit.IsPositive() {
		return domain.ZeroMoney, nil
	}
	return profit.Mul(s.CarryRate).Settle(), nil
}

// ProcessingFee is the payment processor's published formula applied to the
// amount: rate * amount + fixed.
func ProcessingFee(s FeeSchedule, amount domain.Money) (domain.Money, error) {
	if amount.IsNegative() {
		return domain.ZeroMoney, fmt.Errorf("%w: fee amount must not be negative, got %s", apperrors.ErrInvalidInput, amount)
	}
	return amount.Mul(s.ProcessingRate).Add(s.ProcessingFixed).Settle(), nil
}

package engine

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ConversionResult describes the equity issued when a SAFE or note converts
// at a triggering round.
type ConversionResult struct {
	InstrumentID  string               `json:"instrumentID"`
	Kind          domain.InstrumentKind `json:"kind"`
	StakeholderID string               `json:"stakeholderID"`
	// Principal is the converting amount: the SAFE principal as written, or
	// the note principal plus interest accrued to the trigger date.
	Principal domain.Money `json:"principal"`
	Price     domain.Money `json:"price"`
	// Shares is floor(principal/price). The residual fractional-share value
	// is forfeited, never rounded up into a phantom share.
	Shares int64 `json:"shares"`
}

// ForfeitedValue is the residual principal lost to the floor.
func (r ConversionResult) ForfeitedValue() domain.Money {
	return r.Principal.Sub(r.Price.MulInt(r.Shares)).Settle()
}

// Convert dispatches over the closed instrument set. Equity holdings are
// already shares and do not convert.
func Convert(inst domain.Instrument, round domain.EquityRound, asOf time.Time) (ConversionResult, error) {
	switch v := inst.(type) {
	case domain.SafeAgreement:
		return ConvertSafe(v, round)
	case domain.ConvertibleNote:
		return ConvertNote(v, round, asOf)
	case domain.SecurityHolding:
		return ConversionResult{}, fmt.Errorf("%w: holding %s is already equity", apperrors.ErrInvalidState, v.HoldingID)
	default:
		return ConversionResult{}, fmt.Errorf("%w: unknown instrument kind %T", apperrors.ErrInvalidInput, inst)
	}
}

// ConvertSafe prices a SAFE against the triggering round and returns the
// shares issued. Post-money SAFEs measure their cap against the round's
// post-money valuation, pre-money SAFEs against the pre-money valuation.
func ConvertSafe(safe domain.SafeAgreement, round domain.EquityRound) (ConversionResult, error) {
	if safe.Status != domain.SafeActive {
		return ConversionResult{}, fmt.Errorf("%w: SAFE %s is %s", ErrInstrumentNotActive, safe.SafeID, safe.Status)
	}
	valuation := round.PreMoneyValuation
	if safe.Kind == domain.SafePostMoney {
		valuation = round.PostMoneyValuation
	}
	price, err := conversionPrice(round, safe.ValuationCap, safe.DiscountPercent, valuation)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("SAFE %s: %w", safe.SafeID, err)
	}
	return ConversionResult{
		InstrumentID:  safe.SafeID,
		Kind:          domain.InstrumentSafe,
		StakeholderID: safe.StakeholderID,
		Principal:     safe.Principal,
		Price:         price,
		Shares:        safe.Principal.FloorQuotient(price),
	}, nil
}

// ConvertNote prices a convertible note against the triggering round. The
// converting principal includes interest accrued to asOf, and the cap is
// always measured against the pre-money valuation.
func ConvertNote(note domain.ConvertibleNote, round domain.EquityRound, asOf time.Time) (ConversionResult, error) {
	if note.Status != domain.NoteActive {
		return ConversionResult{}, fmt.Errorf("%w: note %s is %s", ErrInstrumentNotActive, note.NoteID, note.Status)
	}
	interest, err := Accrue(note, asOf)
	if err != nil {
		return ConversionResult{}, err
	}
	principal := note.Principal.Add(interest)

	price, err := conversionPrice(round, note.ValuationCap, note.DiscountPercent, round.PreMoneyValuation)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("note %s: %w", note.NoteID, err)
	}
	return ConversionResult{
		InstrumentID:  note.NoteID,
		Kind:          domain.InstrumentNote,
		StakeholderID: note.StakeholderID,
		Principal:     principal,
		Price:         price,
		Shares:        principal.FloorQuotient(price),
	}, nil
}

// conversionPrice is min(cap price, discount price, round price). The cap
// price scales the round price by cap/valuation; an unset cap or discount
// contributes nothing to the minimum.
func conversionPrice(round domain.EquityRound, cap *domain.Money, discountPercent *decimal.Decimal, valuation domain.Money) (domain.Money, error) {
	if !valuation.IsPositive() {
		return domain.ZeroMoney, fmt.Errorf("%w: round valuation %s is not positive", ErrInvalidConversionTerms, valuation)
	}
	price := round.PricePerShare
	if cap != nil {
		capPrice := round.PricePerShare.Mul(cap.Ratio(valuation))
		price = price.Min(capPrice)
	}
	if discountPercent != nil {
		factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
		discountPrice := round.PricePerShare.Mul(factor)
		price = price.Min(discountPrice)
	}
	if !price.IsPositive() {
		return domain.ZeroMoney, fmt.Errorf("%w: computed price %s", ErrInvalidConversionTerms, price)
	}
	return price, nil
}

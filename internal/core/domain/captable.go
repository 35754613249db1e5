package domain

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// CapTableSnapshot is the state of a company's ownership as of a point in
// time: issued holdings, instruments still outstanding (not yet converted)
// and the fully-diluted share count. Snapshots are immutable; applying a
// round produces a new snapshot with Version+1.
type CapTableSnapshot struct {
	CapTableID         string            `json:"capTableID"`
	Version            int64             `json:"version"`
	AsOf               time.Time         `json:"asOf"`
	Holdings           []SecurityHolding `json:"holdings"` // ordered by issuance
	Safes              []SafeAgreement   `json:"safes"`    // outstanding only
	Notes              []ConvertibleNote `json:"notes"`    // outstanding only
	FullyDilutedShares int64             `json:"fullyDilutedShares"`
}

// Validate checks snapshot-level invariants: every holding is well formed and
// total issued shares never exceed the fully-diluted count.
func (s CapTableSnapshot) Validate() error {
	var issued int64
	for _, h := range s.Holdings {
		if err := h.Validate(); err != nil {
			return err
		}
		issued += h.Shares
	}
	if issued > s.FullyDilutedShares {
		return fmt.Errorf("%w: cap table %s has %d issued shares against a fully-diluted count of %d",
			apperrors.ErrInvariantViolation, s.CapTableID, issued, s.FullyDilutedShares)
	}
	return nil
}

// IssuedShares is the sum of all holding share counts.
func (s CapTableSnapshot) IssuedShares() int64 {
	var total int64
	for _, h := range s.Holdings {
		total += h.Shares
	}
	return total
}

// HasPendingInstruments reports whether any SAFE or note is still awaiting
// conversion.
func (s CapTableSnapshot) HasPendingInstruments() bool {
	for _, sf := range s.Safes {
		if sf.Status == SafeActive {
			return true
		}
	}
	for _, n := range s.Notes {
		if n.Status == NoteActive {
			return true
		}
	}
	return false
}

// OwnershipPercent is a holding's share of the fully-diluted pool, as a
// percentage. When no instruments are pending, percentages across all
// holdings sum to 100 within one unit of Money precision.
func (s CapTableSnapshot) OwnershipPercent(h SecurityHolding) decimal.Decimal {
	if s.FullyDilutedShares == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(h.Shares).
		Mul(hundred).
		Div(decimal.NewFromInt(s.FullyDilutedShares))
}

// OwnershipByHolding maps holding ID to ownership percentage.
func (s CapTableSnapshot) OwnershipByHolding() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Holdings))
	for _, h := range s.Holdings {
		out[h.HoldingID] = s.OwnershipPercent(h)
	}
	return out
}

// TotalAsConvertedShares is the common-equivalent share count across all
// holdings, the denominator for as-converted pro-rata splits.
func (s CapTableSnapshot) TotalAsConvertedShares() decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.AsConvertedShares())
	}
	return total
}

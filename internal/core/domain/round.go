package domain

import (
	"fmt"

	"github.com/angelstack/captable_engine/internal/apperrors"
)

// RoundType labels the stage of a financing round.
type RoundType string

const (
	RoundSeed    RoundType = "SEED"
	RoundSeriesA RoundType = "SERIES_A"
	RoundSeriesB RoundType = "SERIES_B"
	RoundSeriesC RoundType = "SERIES_C"
	RoundBridge  RoundType = "BRIDGE"
)

// RoundStatus is the lifecycle state of an equity round. CLOSED and CANCELLED
// are terminal; no investments are recorded after close.
type RoundStatus string

const (
	RoundPlanning  RoundStatus = "PLANNING"
	RoundOpen      RoundStatus = "OPEN"
	RoundClosed    RoundStatus = "CLOSED"
	RoundCancelled RoundStatus = "CANCELLED"
)

// EquityRound is a priced financing round. NewShareTerms are the share class
// terms attached to the preferred stock issued to this round's investors and
// to instruments converting in it.
type EquityRound struct {
	RoundID            string          `json:"roundID"` // Primary key (UUID)
	CapTableID         string          `json:"capTableID"`
	Type               RoundType       `json:"type"`
	TargetAmount       Money           `json:"targetAmount"`
	PricePerShare      Money           `json:"pricePerShare"`
	PreMoneyValuation  Money           `json:"preMoneyValuation"`
	PostMoneyValuation Money           `json:"postMoneyValuation"`
	NewShareTerms      ShareClassTerms `json:"newShareTerms"`
	Status             RoundStatus     `json:"status"`
	AuditFields
}

// Validate checks the round terms at creation time.
func (r EquityRound) Validate() error {
	switch r.Type {
	case RoundSeed, RoundSeriesA, RoundSeriesB, RoundSeriesC, RoundBridge:
	default:
		return fmt.Errorf("%w: round %s has unknown type %q", apperrors.ErrInvalidInput, r.RoundID, r.Type)
	}
	if !r.PricePerShare.IsPositive() {
		return fmt.Errorf("%w: round %s price per share must be positive, got %s", apperrors.ErrInvalidInput, r.RoundID, r.PricePerShare)
	}
	if r.TargetAmount.IsNegative() {
		return fmt.Errorf("%w: round %s target amount must not be negative, got %s", apperrors.ErrInvalidInput, r.RoundID, r.TargetAmount)
	}
	if !r.PreMoneyValuation.IsPositive() {
		return fmt.Errorf("%w: round %s pre-money valuation must be positive, got %s", apperrors.ErrInvalidInput, r.RoundID, r.PreMoneyValuation)
	}
	if err := r.NewShareTerms.Validate(); err != nil {
		return fmt.Errorf("round %s: %w", r.RoundID, err)
	}
	return nil
}

// Open moves a PLANNING round to OPEN.
func (r *EquityRound) Open() error {
	if r.Status != RoundPlanning {
		return fmt.Errorf("%w: round %s is %s, only PLANNING rounds open", apperrors.ErrInvalidState, r.RoundID, r.Status)
	}
	r.Status = RoundOpen
	return nil
}

// Close moves a PLANNING or OPEN round to its terminal CLOSED status.
func (r *EquityRound) Close() error {
	if r.Status != RoundPlanning && r.Status != RoundOpen {
		return fmt.Errorf("%w: round %s is %s, only PLANNING or OPEN rounds close", apperrors.ErrInvalidState, r.RoundID, r.Status)
	}
	r.Status = RoundClosed
	return nil
}

// Cancel moves a PLANNING or OPEN round to its terminal CANCELLED status.
func (r *EquityRound) Cancel() error {
	if r.Status != RoundPlanning && r.Status != RoundOpen {
		return fmt.Errorf("%w: round %s is %s, only PLANNING or OPEN rounds cancel", apperrors.ErrInvalidState, r.RoundID, r.Status)
	}
	r.Status = RoundCancelled
	return nil
}

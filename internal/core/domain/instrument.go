package domain

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// InstrumentKind identifies a member of the closed instrument set.
type InstrumentKind string

const (
	InstrumentEquity InstrumentKind = "EQUITY"
	InstrumentSafe   InstrumentKind = "SAFE"
	InstrumentNote   InstrumentKind = "NOTE"
)

// Instrument is the closed set of securities the engine understands: equity
// holdings, SAFEs and convertible notes. The marker method keeps the set
// sealed so the conversion and waterfall engines can match exhaustively.
type Instrument interface {
	InstrumentKind() InstrumentKind
	sealedInstrument()
}

func (SecurityHolding) InstrumentKind() InstrumentKind { return InstrumentEquity }
func (SecurityHolding) sealedInstrument()              {}

func (SafeAgreement) InstrumentKind() InstrumentKind { return InstrumentSafe }
func (SafeAgreement) sealedInstrument()              {}

func (ConvertibleNote) InstrumentKind() InstrumentKind { return InstrumentNote }
func (ConvertibleNote) sealedInstrument()              {}

// SafeKind distinguishes post-money from pre-money SAFEs; it decides which
// valuation the cap is measured against at conversion.
type SafeKind string

const (
	SafePostMoney SafeKind = "POST_MONEY"
	SafePreMoney  SafeKind = "PRE_MONEY"
)

// SafeStatus is the lifecycle state of a SAFE. CONVERTED and DISSOLVED are
// terminal.
type SafeStatus string

const (
	SafeActive    SafeStatus = "ACTIVE"
	SafeConverted SafeStatus = "CONVERTED"
	SafeDissolved SafeStatus = "DISSOLVED"
)

// SafeAgreement is a Simple Agreement for Future Equity: a right to future
// shares with a fixed principal, converting at a qualified financing.
type SafeAgreement struct {
	SafeID          string           `json:"safeID"` // Primary key (UUID)
	CapTableID      string           `json:"capTableID"`
	StakeholderID   string           `json:"stakeholderID"`
	Principal       Money            `json:"principal"`
	Kind            SafeKind         `json:"kind"`
	ValuationCap    *Money           `json:"valuationCap,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discountPercent,omitempty"` // 0-100
	ProRataRights   bool             `json:"proRataRights"`
	Status          SafeStatus       `json:"status"`
	IssueDate       time.Time        `json:"issueDate"`
	AuditFields
}

// Validate checks the SAFE terms at creation time.
func (s SafeAgreement) Validate() error {
	if s.StakeholderID == "" {
		return fmt.Errorf("%w: SAFE %s has no stakeholder", apperrors.ErrInvalidInput, s.SafeID)
	}
	if !s.Principal.IsPositive() {
		return fmt.Errorf("%w: SAFE %s principal must be positive, got %s", apperrors.ErrInvalidInput, s.SafeID, s.Principal)
	}
	if s.Kind != SafePostMoney && s.Kind != SafePreMoney {
		return fmt.Errorf("%w: SAFE %s has unknown kind %q", apperrors.ErrInvalidInput, s.SafeID, s.Kind)
	}
	if s.ValuationCap != nil && !s.ValuationCap.IsPositive() {
		return fmt.Errorf("%w: SAFE %s valuation cap must be positive, got %s", apperrors.ErrInvalidInput, s.SafeID, s.ValuationCap)
	}
	if err := validateDiscountPercent(s.DiscountPercent); err != nil {
		return fmt.Errorf("SAFE %s: %w", s.SafeID, err)
	}
	return nil
}

// MarkConverted moves the SAFE to its terminal CONVERTED status.
func (s *SafeAgreement) MarkConverted() error {
	if s.Status != SafeActive {
		return fmt.Errorf("%w: SAFE %s is %s, only ACTIVE SAFEs convert", apperrors.ErrInvalidState, s.SafeID, s.Status)
	}
	s.Status = SafeConverted
	return nil
}

// Dissolve moves the SAFE to its terminal DISSOLVED status.
func (s *SafeAgreement) Dissolve() error {
	if s.Status != SafeActive {
		return fmt.Errorf("%w: SAFE %s is %s, only ACTIVE SAFEs dissolve", apperrors.ErrInvalidState, s.SafeID, s.Status)
	}
	s.Status = SafeDissolved
	return nil
}

// CompoundingPolicy selects how note interest accrues.
type CompoundingPolicy string

const (
	CompoundingSimple   CompoundingPolicy = "SIMPLE"
	CompoundingAnnually CompoundingPolicy = "COMPOUNDED_ANNUALLY"
)

// NoteStatus is the lifecycle state of a convertible note. CONVERTED, REPAID
// and DEFAULTED are terminal.
type NoteStatus string

const (
	NoteActive    NoteStatus = "ACTIVE"
	NoteConverted NoteStatus = "CONVERTED"
	NoteRepaid    NoteStatus = "REPAID"
	NoteDefaulted NoteStatus = "DEFAULTED"
)

// ConvertibleNote is a debt instrument that accrues interest and converts to
// equity at a qualified financing.
type ConvertibleNote struct {
	NoteID          string            `json:"noteID"` // Primary key (UUID)
	CapTableID      string            `json:"capTableID"`
	StakeholderID   string            `json:"stakeholderID"`
	Principal       Money             `json:"principal"`
	InterestRate    decimal.Decimal   `json:"interestRate"` // annual rate as a fraction (0.08 = 8%)
	Compounding     CompoundingPolicy `json:"compounding"`
	IssueDate       time.Time         `json:"issueDate"`
	MaturityDate    time.Time         `json:"maturityDate"`
	ValuationCap    *Money            `json:"valuationCap,omitempty"`
	DiscountPercent *decimal.Decimal  `json:"discountPercent,omitempty"` // 0-100
	Status          NoteStatus        `json:"status"`
	AuditFields
}

// Validate checks the note terms at creation time.
func (n ConvertibleNote) Validate() error {
	if n.StakeholderID == "" {
		return fmt.Errorf("%w: note %s has no stakeholder", apperrors.ErrInvalidInput, n.NoteID)
	}
	if !n.Principal.IsPositive() {
		return fmt.Errorf("%w: note %s principal must be positive, got %s", apperrors.ErrInvalidInput, n.NoteID, n.Principal)
	}
	if n.InterestRate.IsNegative() {
		return fmt.Errorf("%w: note %s interest rate must not be negative, got %s", apperrors.ErrInvalidInput, n.NoteID, n.InterestRate)
	}
	if n.Compounding != CompoundingSimple && n.Compounding != CompoundingAnnually {
		return fmt.Errorf("%w: note %s has unknown compounding policy %q", apperrors.ErrInvalidInput, n.NoteID, n.Compounding)
	}
	if !n.MaturityDate.After(n.IssueDate) {
		return fmt.Errorf("%w: note %s maturity date must be after issue date", apperrors.ErrInvalidInput, n.NoteID)
	}
	if n.ValuationCap != nil && !n.ValuationCap.IsPositive() {
		return fmt.Errorf("%w: note %s valuation cap must be positive, got %s", apperrors.ErrInvalidInput, n.NoteID, n.ValuationCap)
	}
	if err := validateDiscountPercent(n.DiscountPercent); err != nil {
		return fmt.Errorf("note %s: %w", n.NoteID, err)
	}
	return nil
}

// MarkConverted moves the note to its terminal CONVERTED status.
func (n *ConvertibleNote) MarkConverted() error {
	return n.transition(NoteConverted)
}

// MarkRepaid moves the note to its terminal REPAID status.
func (n *ConvertibleNote) MarkRepaid() error {
	return n.transition(NoteRepaid)
}

// MarkDefaulted moves the note to its terminal DEFAULTED status.
func (n *ConvertibleNote) MarkDefaulted() error {
	return n.transition(NoteDefaulted)
}

func (n *ConvertibleNote) transition(next NoteStatus) error {
	if n.Status != NoteActive {
		return fmt.Errorf("%w: note %s is %s, only ACTIVE notes may transition to %s", apperrors.ErrInvalidState, n.NoteID, n.Status, next)
	}
	n.Status = next
	return nil
}

var hundred = decimal.NewFromInt(100)

func validateDiscountPercent(d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount must be within [0,100], got %s", apperrors.ErrInvalidInput, d)
	}
	return nil
}

package dto

import (
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSafeRequest defines the data needed to record a SAFE.
type CreateSafeRequest struct {
	StakeholderID   string           `json:"stakeholderID" binding:"required"`
	Principal       domain.Money     `json:"principal"`
	Kind            domain.SafeKind  `json:"kind" binding:"required,oneof=POST_MONEY PRE_MONEY"`
	ValuationCap    *domain.Money    `json:"valuationCap"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"` // 0-100
	ProRataRights   bool             `json:"proRataRights"`
	IssueDate       time.Time        `json:"issueDate" binding:"required"`
}

// CreateNoteRequest defines the data needed to record a convertible note.
type CreateNoteRequest struct {
	StakeholderID   string                   `json:"stakeholderID" binding:"required"`
	Principal       domain.Money             `json:"principal"`
	InterestRate    decimal.Decimal          `json:"interestRate"` // annual fraction, 0.08 = 8%
	Compounding     domain.CompoundingPolicy `json:"compounding" binding:"required,oneof=SIMPLE COMPOUNDED_ANNUALLY"`
	IssueDate       time.Time                `json:"issueDate" binding:"required"`
	MaturityDate    time.Time                `json:"maturityDate" binding:"required"`
	ValuationCap    *domain.Money            `json:"valuationCap"`
	DiscountPercent *decimal.Decimal         `json:"discountPercent"` // 0-100
}

// AccruedInterestResponse defines the data returned for an interest quote.
type AccruedInterestResponse struct {
	NoteID   string       `json:"noteID"`
	AsOf     time.Time    `json:"asOf"`
	Interest domain.Money `json:"interest"`
}

// Domain instruments already carry wire-friendly JSON tags, so SAFE and note
// responses return them directly rather than mirroring every field.
type SafeResponse = domain.SafeAgreement

type NoteResponse = domain.ConvertibleNote

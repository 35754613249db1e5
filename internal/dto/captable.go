package dto

import (
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCapTableRequest defines the data needed to open a new cap table.
type CreateCapTableRequest struct {
	// FullyDilutedShares is the authorized pool all ownership percentages are
	// computed against.
	FullyDilutedShares int64 `json:"fullyDilutedShares" binding:"required,gt=0"`
}

// ShareClassTermsRequest carries preferred share class terms on the wire.
type ShareClassTermsRequest struct {
	PreferenceMultiple       decimal.Decimal  `json:"preferenceMultiple"`
	SeniorityRank            *int             `json:"seniorityRank"`
	Participating            bool             `json:"participating"`
	ParticipationCapMultiple *decimal.Decimal `json:"participationCapMultiple"`
	ConversionRatio          decimal.Decimal  `json:"conversionRatio"`
}

// ToDomainTerms converts the request terms to domain.ShareClassTerms.
func (r ShareClassTermsRequest) ToDomainTerms() domain.ShareClassTerms {
	return domain.ShareClassTerms{
		PreferenceMultiple:       r.PreferenceMultiple,
		SeniorityRank:            r.SeniorityRank,
		Participating:            r.Participating,
		ParticipationCapMultiple: r.ParticipationCapMultiple,
		ConversionRatio:          r.ConversionRatio,
	}
}

// IssueHoldingRequest defines the data needed to record an issued block of
// shares on a cap table.
type IssueHoldingRequest struct {
	StakeholderID      string                  `json:"stakeholderID" binding:"required"`
	Class              domain.ShareClassKind   `json:"class" binding:"required,oneof=COMMON PREFERRED"`
	Terms              *ShareClassTermsRequest `json:"terms"` // required for PREFERRED
	Shares             int64                   `json:"shares" binding:"required,gt=0"`
	IssuePricePerShare domain.Money            `json:"issuePricePerShare"`
	IssueDate          time.Time               `json:"issueDate" binding:"required"`
}

// HoldingResponse defines the data returned for one holding, with its
// computed ownership percentage.
type HoldingResponse struct {
	HoldingID          string                `json:"holdingID"`
	StakeholderID      string                `json:"stakeholderID"`
	Class              domain.ShareClassKind `json:"class"`
	Shares             int64                 `json:"shares"`
	IssuePricePerShare domain.Money          `json:"issuePricePerShare"`
	IssueDate          time.Time             `json:"issueDate"`
	OwnershipPercent   decimal.Decimal       `json:"ownershipPercent"`
}

// SnapshotResponse defines the data returned for a cap table snapshot.
type SnapshotResponse struct {
	CapTableID         string    `json:"capTableID"`
	Version            int64     `json:"version"`
	AsOf               time.Time `json:"asOf"`
	FullyDilutedShares int64     `json:"fullyDilutedShares"`
	IssuedShares       int64     `json:"issuedShares"`
	// TotalAsConvertedShares is the common-equivalent count across all
	// holdings; it differs from IssuedShares when conversion ratios are not 1.
	TotalAsConvertedShares decimal.Decimal          `json:"totalAsConvertedShares"`
	Holdings               []HoldingResponse        `json:"holdings"`
	Safes                  []domain.SafeAgreement   `json:"safes,omitempty"`
	Notes                  []domain.ConvertibleNote `json:"notes,omitempty"`
}

// ToSnapshotResponse converts a domain snapshot to its wire form, attaching
// ownership percentages per holding.
func ToSnapshotResponse(s *domain.CapTableSnapshot) SnapshotResponse {
	holdings := make([]HoldingResponse, len(s.Holdings))
	for i, h := range s.Holdings {
		holdings[i] = HoldingResponse{
			HoldingID:          h.HoldingID,
			StakeholderID:      h.StakeholderID,
			Class:              h.Class,
			Shares:             h.Shares,
			IssuePricePerShare: h.IssuePricePerShare,
			IssueDate:          h.IssueDate,
			OwnershipPercent:   s.OwnershipPercent(h),
		}
	}
	return SnapshotResponse{
		CapTableID:             s.CapTableID,
		Version:                s.Version,
		AsOf:                   s.AsOf,
		FullyDilutedShares:     s.FullyDilutedShares,
		IssuedShares:           s.IssuedShares(),
		TotalAsConvertedShares: s.TotalAsConvertedShares(),
		Holdings:               holdings,
		Safes:                  s.Safes,
		Notes:                  s.Notes,
	}
}

package dto

import (
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	"github.com/shopspring/decimal"
)

// CreateExitRequest defines the data needed to record a planned exit event.
type CreateExitRequest struct {
	Type          domain.ExitType `json:"type" binding:"required,oneof=ACQUISITION IPO SECONDARY_SALE DISSOLUTION"`
	ExitDate      time.Time       `json:"exitDate" binding:"required"`
	TotalProceeds domain.Money    `json:"totalProceeds"`
}

// CompleteExitRequest carries the settlement inputs for completing an exit.
type CompleteExitRequest struct {
	// TaxWithholdingRate is a fraction (0.30 = 30%) withheld from each gross
	// payout. Zero when withholding is handled downstream.
	TaxWithholdingRate decimal.Decimal `json:"taxWithholdingRate"`
}

// ExitResponse defines the data returned for an exit event.
type ExitResponse struct {
	ExitID        string            `json:"exitID"`
	CapTableID    string            `json:"capTableID"`
	Type          domain.ExitType   `json:"type"`
	ExitDate      time.Time         `json:"exitDate"`
	TotalProceeds domain.Money      `json:"totalProceeds"`
	Status        domain.ExitStatus `json:"status"`
}

// ToExitResponse converts a domain.ExitEvent to ExitResponse DTO
func ToExitResponse(e *domain.ExitEvent) ExitResponse {
	return ExitResponse{
		ExitID:        e.ExitID,
		CapTableID:    e.CapTableID,
		Type:          e.Type,
		ExitDate:      e.ExitDate,
		TotalProceeds: e.TotalProceeds,
		Status:        e.Status,
	}
}

// WaterfallPreviewRequest asks what the current snapshot would pay at a
// hypothetical proceeds amount, without touching any exit record.
type WaterfallPreviewRequest struct {
	Proceeds domain.Money `json:"proceeds"`
}

// WaterfallResponse wraps the engine's distribution result.
type WaterfallResponse struct {
	Result engine.WaterfallResult `json:"result"`
}

// DistributionResponse defines the data returned for one stakeholder payout.
type DistributionResponse struct {
	DistributionID string                    `json:"distributionID"`
	ExitID         string                    `json:"exitID"`
	StakeholderID  string                    `json:"stakeholderID"`
	GrossAmount    domain.Money              `json:"grossAmount"`
	TaxWithheld    domain.Money              `json:"taxWithheld"`
	NetAmount      domain.Money              `json:"netAmount"`
	Status         domain.DistributionStatus `json:"status"`
}

// ToDistributionResponse converts a domain.Distribution to its wire form.
func ToDistributionResponse(d *domain.Distribution) DistributionResponse {
	return DistributionResponse{
		DistributionID: d.DistributionID,
		ExitID:         d.ExitID,
		StakeholderID:  d.StakeholderID,
		GrossAmount:    d.GrossAmount,
		TaxWithheld:    d.TaxWithheld,
		NetAmount:      d.NetAmount,
		Status:         d.Status,
	}
}

// ToListDistributionResponse converts a slice of distributions to DTOs
func ToListDistributionResponse(distributions []domain.Distribution) []DistributionResponse {
	res := make([]DistributionResponse, len(distributions))
	for i, d := range distributions {
		res[i] = ToDistributionResponse(&d)
	}
	return res
}

// UpdateDistributionStatusRequest moves a distribution along its progression.
type UpdateDistributionStatusRequest struct {
	Status domain.DistributionStatus `json:"status" binding:"required,oneof=PROCESSING COMPLETED FAILED"`
}

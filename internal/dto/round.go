package dto

import (
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
)

// CreateRoundRequest defines the data needed to plan an equity round.
type CreateRoundRequest struct {
	Type               domain.RoundType       `json:"type" binding:"required,oneof=SEED SERIES_A SERIES_B SERIES_C BRIDGE"`
	TargetAmount       domain.Money           `json:"targetAmount"`
	PricePerShare      domain.Money           `json:"pricePerShare"`
	PreMoneyValuation  domain.Money           `json:"preMoneyValuation"`
	PostMoneyValuation domain.Money           `json:"postMoneyValuation"`
	NewShareTerms      ShareClassTermsRequest `json:"newShareTerms" binding:"required"`
}

// InvestmentRequest is one cash commitment into a round.
type InvestmentRequest struct {
	StakeholderID string       `json:"stakeholderID" binding:"required"`
	Amount        domain.Money `json:"amount"`
}

// ApplyRoundRequest defines the data needed to apply a round to a cap table.
// ExpectedVersion is the snapshot version the caller based its decision on;
// a mismatch is rejected with 409.
type ApplyRoundRequest struct {
	ExpectedVersion int64               `json:"expectedVersion" binding:"required,gt=0"`
	AsOf            time.Time           `json:"asOf" binding:"required"`
	Investments     []InvestmentRequest `json:"investments" binding:"required,min=1,dive"`
}

// RoundResponse defines the data returned for an equity round.
type RoundResponse struct {
	RoundID            string             `json:"roundID"`
	CapTableID         string             `json:"capTableID"`
	Type               domain.RoundType   `json:"type"`
	TargetAmount       domain.Money       `json:"targetAmount"`
	PricePerShare      domain.Money       `json:"pricePerShare"`
	PreMoneyValuation  domain.Money       `json:"preMoneyValuation"`
	PostMoneyValuation domain.Money       `json:"postMoneyValuation"`
	Status             domain.RoundStatus `json:"status"`
}

// ToRoundResponse converts a domain.EquityRound to RoundResponse DTO
func ToRoundResponse(r *domain.EquityRound) RoundResponse {
	return RoundResponse{
		RoundID:            r.RoundID,
		CapTableID:         r.CapTableID,
		Type:               r.Type,
		TargetAmount:       r.TargetAmount,
		PricePerShare:      r.PricePerShare,
		PreMoneyValuation:  r.PreMoneyValuation,
		PostMoneyValuation: r.PostMoneyValuation,
		Status:             r.Status,
	}
}

// ToListRoundResponse converts a slice of domain.EquityRound to DTOs
func ToListRoundResponse(rounds []domain.EquityRound) []RoundResponse {
	res := make([]RoundResponse, len(rounds))
	for i, r := range rounds {
		res[i] = ToRoundResponse(&r)
	}
	return res
}

// ApplyRoundResponse wraps the issuance report plus the successor snapshot.
type ApplyRoundResponse struct {
	Report   engine.IssuanceReport `json:"report"`
	Snapshot SnapshotResponse      `json:"snapshot"`
}

package dto

import (
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
)

// PlatformFeeRequest asks for a platform fee quote on an investment amount.
type PlatformFeeRequest struct {
	Amount domain.Money          `json:"amount"`
	Type   engine.InvestmentType `json:"type" binding:"required,oneof=DIRECT SYNDICATE"`
}

// CarryFeeRequest asks for a carried-interest quote on a position.
type CarryFeeRequest struct {
	InitialInvestment domain.Money `json:"initialInvestment"`
	CurrentValue      domain.Money `json:"currentValue"`
}

// ProcessingFeeRequest asks for a payment processing fee quote.
type ProcessingFeeRequest struct {
	Amount domain.Money `json:"amount"`
}

// FeeResponse carries a single quoted fee amount.
type FeeResponse struct {
	Fee domain.Money `json:"fee"`
}

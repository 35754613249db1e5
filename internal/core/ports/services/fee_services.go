package services

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
)

// FeeSvc quotes fees from the configured schedule. Quotes are pure
// computations; nothing is persisted.
type FeeSvc interface {
	// QuotePlatformFee quotes the platform's percentage fee with its minimum floor.
	QuotePlatformFee(ctx context.Context, amount domain.Money, typ engine.InvestmentType) (domain.Money, error)

	// QuoteCarryFee quotes the carried interest on a position's profit.
	QuoteCarryFee(ctx context.Context, initialInvestment, currentValue domain.Money) (domain.Money, error)

	// QuoteProcessingFee quotes the payment processor's fee on an amount.
	QuoteProcessingFee(ctx context.Context, amount domain.Money) (domain.Money, error)
}

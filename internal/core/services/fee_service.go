package services

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
)

type feeService struct {
	schedule engine.FeeSchedule
}

// NewFeeService creates the fee quoting service from the configured schedule.
func NewFeeService(schedule engine.FeeSchedule) portssvc.FeeSvc {
	return &feeService{schedule: schedule}
}

var _ portssvc.FeeSvc = (*feeService)(nil)

func (s *feeService) QuotePlatformFee(ctx context.Context, amount domain.Money, typ engine.InvestmentType) (domain.Money, error) {
	return engine.PlatformFee(s.schedule, amount, typ)
}

func (s *feeService) QuoteCarryFee(ctx context.Context, initialInvestment, currentValue domain.Money) (domain.Money, error) {
	return engine.CarryFee(s.schedule, initialInvestment, currentValue)
}

func (s *feeService) QuoteProcessingFee(ctx context.Context, amount domain.Money) (domain.Money, error) {
	return engine.ProcessingFee(s.schedule, amount)
}

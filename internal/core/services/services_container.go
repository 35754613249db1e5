package services

import (
	"github.com/angelstack/captable_engine/internal/core/engine"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/pkg/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Stakeholder = NewStakeholderService(repos.StakeholderRepo)
	container.CapTable = NewCapTableService(repos.CapTableRepo, repos.StakeholderRepo)
	container.Instrument = NewInstrumentService(repos.InstrumentRepo, repos.CapTableRepo)

	container.Round = NewRoundService(repos.RoundRepo, repos.CapTableRepo, engine.RoundConfig{
		QualifiedFinancingThreshold: cfg.QualifiedFinancingThreshold,
		NewID:                       uuid.NewString,
	})

	container.Exit = NewExitService(repos.ExitRepo, repos.CapTableRepo)

	container.Fee = NewFeeService(engine.FeeSchedule{
		PlatformRates: map[engine.InvestmentType]decimal.Decimal{
			engine.InvestmentDirect:    cfg.PlatformFeeRateDirect,
			engine.InvestmentSyndicate: cfg.PlatformFeeRateSyndicate,
		},
		PlatformMinimum: cfg.PlatformFeeMinimum,
		CarryRate:       cfg.CarryRate,
		ProcessingRate:  cfg.ProcessingFeeRate,
		ProcessingFixed: cfg.ProcessingFeeFixed,
	})

	return container
}

package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	StakeholderRepo StakeholderRepositoryFacade
	CapTableRepo    CapTableRepositoryFacade
	InstrumentRepo  InstrumentRepositoryFacade
	RoundRepo       RoundRepositoryFacade
	ExitRepo        ExitRepositoryFacade
}

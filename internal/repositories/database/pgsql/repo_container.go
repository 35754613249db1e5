package pgsql

import (
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		StakeholderRepo: newPgxStakeholderRepository(dbPool),
		CapTableRepo:    newPgxCapTableRepository(dbPool),
		InstrumentRepo:  newPgxInstrumentRepository(dbPool),
		RoundRepo:       newPgxRoundRepository(dbPool),
		ExitRepo:        newPgxExitRepository(dbPool),
	}
}

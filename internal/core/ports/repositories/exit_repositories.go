package repositories

import (
	"context"
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
)

// ExitReader defines read operations for exit event data
type ExitReader interface {
	// FindExitByID retrieves an exit event by its unique identifier.
	FindExitByID(ctx context.Context, exitID string) (*domain.ExitEvent, error)

	// ListExitsByCapTable retrieves all exit events recorded against a cap table.
	ListExitsByCapTable(ctx context.Context, capTableID string) ([]domain.ExitEvent, error)

	// ListDistributionsByExit retrieves the payouts materialized for an exit.
	ListDistributionsByExit(ctx context.Context, exitID string) ([]domain.Distribution, error)

	// FindDistributionByID retrieves a single distribution.
	FindDistributionByID(ctx context.Context, distributionID string) (*domain.Distribution, error)
}

// ExitWriter defines write operations for exit event data
type ExitWriter interface {
	// SaveExit persists a new exit event.
	SaveExit(ctx context.Context, exit domain.ExitEvent) error

	// UpdateExitStatus moves an exit to a new lifecycle status.
	UpdateExitStatus(ctx context.Context, exitID string, status domain.ExitStatus, userID string, now time.Time) error

	// SaveDistributions persists the payouts of a completed waterfall in one batch.
	SaveDistributions(ctx context.Context, distributions []domain.Distribution) error

	// UpdateDistributionStatus moves a distribution along its linear progression.
	UpdateDistributionStatus(ctx context.Context, distributionID string, status domain.DistributionStatus, userID string, now time.Time) error
}

// ExitRepositoryFacade combines all exit-related repository interfaces
type ExitRepositoryFacade interface {
	ExitReader
	ExitWriter
}

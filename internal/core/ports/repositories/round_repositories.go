package repositories

import (
	"context"
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
)

// RoundReader defines read operations for equity round data
type RoundReader interface {
	// FindRoundByID retrieves a round by its unique identifier.
	FindRoundByID(ctx context.Context, roundID string) (*domain.EquityRound, error)

	// ListRoundsByCapTable retrieves all rounds recorded against a cap table.
	ListRoundsByCapTable(ctx context.Context, capTableID string) ([]domain.EquityRound, error)
}

// RoundWriter defines write operations for equity round data
type RoundWriter interface {
	// SaveRound persists a new round.
	SaveRound(ctx context.Context, round domain.EquityRound) error

	// UpdateRoundStatus moves a round to a new lifecycle status.
	UpdateRoundStatus(ctx context.Context, roundID string, status domain.RoundStatus, userID string, now time.Time) error
}

// RoundRepositoryFacade combines all round-related repository interfaces
type RoundRepositoryFacade interface {
	RoundReader
	RoundWriter
}

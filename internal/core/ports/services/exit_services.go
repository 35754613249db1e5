package services

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	"github.com/angelstack/captable_engine/internal/dto"
)

// ExitReaderSvc defines read operations for exit event data
type ExitReaderSvc interface {
	// GetExitByID retrieves an exit event by its unique identifier.
	GetExitByID(ctx context.Context, exitID string) (*domain.ExitEvent, error)

	// ListExits retrieves all exit events recorded against a cap table.
	ListExits(ctx context.Context, capTableID string) ([]domain.ExitEvent, error)

	// ListDistributions retrieves the payouts materialized for an exit.
	ListDistributions(ctx context.Context, exitID string) ([]domain.Distribution, error)

	// PreviewWaterfall runs the waterfall against the current snapshot at a
	// hypothetical proceeds amount, without touching any exit record.
	PreviewWaterfall(ctx context.Context, capTableID string, proceeds domain.Money) (*engine.WaterfallResult, error)
}

// ExitWriterSvc defines write operations for exit event data
type ExitWriterSvc interface {
	// CreateExit records a new exit event in PLANNED status.
	CreateExit(ctx context.Context, capTableID string, req dto.CreateExitRequest, userID string) (*domain.ExitEvent, error)

	// StartExit moves a PLANNED exit to IN_PROGRESS.
	StartExit(ctx context.Context, exitID string, userID string) error

	// CancelExit moves a PLANNED or IN_PROGRESS exit to CANCELLED.
	CancelExit(ctx context.Context, exitID string, userID string) error

	// CompleteExit runs the waterfall on the current snapshot, materializes
	// PENDING distributions per stakeholder and moves the exit to COMPLETED.
	CompleteExit(ctx context.Context, exitID string, req dto.CompleteExitRequest, userID string) (*engine.WaterfallResult, []domain.Distribution, error)

	// AdvanceDistribution moves a distribution along its linear progression.
	AdvanceDistribution(ctx context.Context, distributionID string, next domain.DistributionStatus, userID string) error
}

// ExitSvcFacade combines all exit-related service interfaces
type ExitSvcFacade interface {
	ExitReaderSvc
	ExitWriterSvc
}

package services

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	"github.com/angelstack/captable_engine/internal/dto"
)

// RoundReaderSvc defines read operations for equity round data
type RoundReaderSvc interface {
	// GetRoundByID retrieves a round by its unique identifier.
	GetRoundByID(ctx context.Context, roundID string) (*domain.EquityRound, error)

	// ListRounds retrieves all rounds recorded against a cap table.
	ListRounds(ctx context.Context, capTableID string) ([]domain.EquityRound, error)
}

// RoundWriterSvc defines write operations for equity round data
type RoundWriterSvc interface {
	// CreateRound plans a new round (PLANNING status).
	CreateRound(ctx context.Context, capTableID string, req dto.CreateRoundRequest, userID string) (*domain.EquityRound, error)

	// OpenRound moves a PLANNING round to OPEN.
	OpenRound(ctx context.Context, roundID string, userID string) error

	// CancelRound moves a PLANNING or OPEN round to CANCELLED.
	CancelRound(ctx context.Context, roundID string, userID string) error

	// ApplyRound dilutes the cap table through the engine, converts qualifying
	// instruments, closes the round and returns the issuance report with the
	// successor snapshot. Rejects a stale expected version with
	// apperrors.ErrStaleSnapshot.
	ApplyRound(ctx context.Context, roundID string, req dto.ApplyRoundRequest, userID string) (*engine.IssuanceReport, *domain.CapTableSnapshot, error)
}

// RoundSvcFacade combines all round-related service interfaces
type RoundSvcFacade interface {
	RoundReaderSvc
	RoundWriterSvc
}

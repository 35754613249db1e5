package services

import (
	"context"
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/dto"
)

// InstrumentReaderSvc defines read operations for SAFE and note data
type InstrumentReaderSvc interface {
	// GetSafeByID retrieves a SAFE by its unique identifier.
	GetSafeByID(ctx context.Context, safeID string) (*domain.SafeAgreement, error)

	// GetNoteByID retrieves a convertible note by its unique identifier.
	GetNoteByID(ctx context.Context, noteID string) (*domain.ConvertibleNote, error)

	// QuoteAccruedInterest computes a note's accrued interest as of a date
	// without changing any state.
	QuoteAccruedInterest(ctx context.Context, noteID string, asOf time.Time) (domain.Money, error)
}

// InstrumentWriterSvc defines write operations for SAFE and note data
type InstrumentWriterSvc interface {
	// IssueSafe records a new SAFE against a cap table.
	IssueSafe(ctx context.Context, capTableID string, req dto.CreateSafeRequest, userID string) (*domain.SafeAgreement, error)

	// IssueNote records a new convertible note against a cap table.
	IssueNote(ctx context.Context, capTableID string, req dto.CreateNoteRequest, userID string) (*domain.ConvertibleNote, error)

	// DissolveSafe moves an ACTIVE SAFE to its terminal DISSOLVED status.
	DissolveSafe(ctx context.Context, safeID string, userID string) error

	// RepayNote moves an ACTIVE note to its terminal REPAID status.
	RepayNote(ctx context.Context, noteID string, userID string) error

	// DefaultNote moves an ACTIVE note to its terminal DEFAULTED status.
	DefaultNote(ctx context.Context, noteID string, userID string) error
}

// InstrumentSvcFacade combines all instrument-related service interfaces
type InstrumentSvcFacade interface {
	InstrumentReaderSvc
	InstrumentWriterSvc
}

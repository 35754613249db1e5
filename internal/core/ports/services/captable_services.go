package services

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/dto"
)

// CapTableReaderSvc defines read operations for cap table data
type CapTableReaderSvc interface {
	// GetSnapshot retrieves the current snapshot of a cap table.
	GetSnapshot(ctx context.Context, capTableID string) (*domain.CapTableSnapshot, error)
}

// CapTableWriterSvc defines write operations for cap table data
type CapTableWriterSvc interface {
	// CreateCapTable opens a new, empty cap table.
	CreateCapTable(ctx context.Context, req dto.CreateCapTableRequest, userID string) (*domain.CapTableSnapshot, error)

	// IssueHolding records an issued block of shares against a cap table.
	IssueHolding(ctx context.Context, capTableID string, req dto.IssueHoldingRequest, userID string) (*domain.SecurityHolding, error)
}

// CapTableSvcFacade combines all cap-table-related service interfaces
type CapTableSvcFacade interface {
	CapTableReaderSvc
	CapTableWriterSvc
}

package services

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/dto"
)

// StakeholderReaderSvc defines read operations for stakeholder data
type StakeholderReaderSvc interface {
	// GetStakeholderByID retrieves a specific stakeholder by its unique identifier.
	GetStakeholderByID(ctx context.Context, stakeholderID string) (*domain.Stakeholder, error)

	// ListStakeholders retrieves a paginated list of stakeholders.
	ListStakeholders(ctx context.Context, limit int, offset int) ([]domain.Stakeholder, error)
}

// StakeholderWriterSvc defines write operations for stakeholder data
type StakeholderWriterSvc interface {
	// CreateStakeholder registers a new stakeholder.
	CreateStakeholder(ctx context.Context, req dto.CreateStakeholderRequest, userID string) (*domain.Stakeholder, error)
}

// StakeholderSvcFacade combines all stakeholder-related service interfaces
type StakeholderSvcFacade interface {
	StakeholderReaderSvc
	StakeholderWriterSvc
}

package repositories

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
)

// StakeholderReader defines read operations for stakeholder data
type StakeholderReader interface {
	// FindStakeholderByID retrieves a specific stakeholder by its unique identifier.
	FindStakeholderByID(ctx context.Context, stakeholderID string) (*domain.Stakeholder, error)

	// ListStakeholders retrieves a paginated list of stakeholders.
	ListStakeholders(ctx context.Context, limit int, offset int) ([]domain.Stakeholder, error)
}

// StakeholderWriter defines write operations for stakeholder data
type StakeholderWriter interface {
	// SaveStakeholder persists a new stakeholder.
	SaveStakeholder(ctx context.Context, stakeholder domain.Stakeholder) error
}

// StakeholderRepositoryFacade combines all stakeholder-related repository interfaces
type StakeholderRepositoryFacade interface {
	StakeholderReader
	StakeholderWriter
}

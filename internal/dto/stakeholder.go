package dto

import (
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
)

// CreateStakeholderRequest defines the data needed to register a stakeholder.
type CreateStakeholderRequest struct {
	Name string                 `json:"name" binding:"required"`
	Role domain.StakeholderRole `json:"role" binding:"required,oneof=FOUNDER EMPLOYEE INVESTOR PLATFORM"`
}

// StakeholderResponse defines the data returned for a stakeholder.
// Mirrors domain.Stakeholder.
type StakeholderResponse struct {
	StakeholderID string                 `json:"stakeholderID"`
	Name          string                 `json:"name"`
	Role          domain.StakeholderRole `json:"role"`
	CreatedAt     time.Time              `json:"createdAt"`
	CreatedBy     string                 `json:"createdBy"`
}

// ToStakeholderResponse converts a domain.Stakeholder to StakeholderResponse DTO
func ToStakeholderResponse(s *domain.Stakeholder) StakeholderResponse {
	return StakeholderResponse{
		StakeholderID: s.StakeholderID,
		Name:          s.Name,
		Role:          s.Role,
		CreatedAt:     s.CreatedAt,
		CreatedBy:     s.CreatedBy,
	}
}

// ListStakeholdersParams defines query parameters for listing stakeholders.
type ListStakeholdersParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListStakeholdersResponse wraps the list of stakeholders.
type ListStakeholdersResponse struct {
	Stakeholders []StakeholderResponse `json:"stakeholders"`
}

package domain

import (
	"fmt"

	"github.com/angelstack/captable_engine/internal/apperrors"
)

// StakeholderRole tags what a stakeholder is to the company.
type StakeholderRole string

const (
	RoleFounder  StakeholderRole = "FOUNDER"
	RoleEmployee StakeholderRole = "EMPLOYEE"
	RoleInvestor StakeholderRole = "INVESTOR"
	RolePlatform StakeholderRole = "PLATFORM"
)

// Stakeholder is an identity that can hold securities. It is immutable once
// created and is referenced (never owned) by holdings and instruments.
type Stakeholder struct {
	StakeholderID string          `json:"stakeholderID"` // Primary key (UUID)
	Name          string          `json:"name"`
	Role          StakeholderRole `json:"role"`
	AuditFields
}

// Validate checks the stakeholder fields at creation time.
func (s Stakeholder) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: stakeholder name is required", apperrors.ErrInvalidInput)
	}
	switch s.Role {
	case RoleFounder, RoleEmployee, RoleInvestor, RolePlatform:
		return nil
	default:
		return fmt.Errorf("%w: unknown stakeholder role %q", apperrors.ErrInvalidInput, s.Role)
	}
}

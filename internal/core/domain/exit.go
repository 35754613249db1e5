package domain

import (
	"fmt"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
)

// ExitType labels how the company exits.
type ExitType string

const (
	ExitAcquisition ExitType = "ACQUISITION"
	ExitIPO         ExitType = "IPO"
	ExitSecondary   ExitType = "SECONDARY_SALE"
	ExitDissolution ExitType = "DISSOLUTION"
)

// ExitStatus is the lifecycle state of an exit event. Transitions form a
// strict DAG: PLANNED -> {IN_PROGRESS, CANCELLED},
// IN_PROGRESS -> {COMPLETED, CANCELLED}; COMPLETED and CANCELLED are terminal.
type ExitStatus string

const (
	ExitPlanned    ExitStatus = "PLANNED"
	ExitInProgress ExitStatus = "IN_PROGRESS"
	ExitCompleted  ExitStatus = "COMPLETED"
	ExitCancelled  ExitStatus = "CANCELLED"
)

var exitTransitions = map[ExitStatus][]ExitStatus{
	ExitPlanned:    {ExitInProgress, ExitCancelled},
	ExitInProgress: {ExitCompleted, ExitCancelled},
}

// ExitEvent is a liquidity event whose proceeds are distributed through the
// waterfall.
type ExitEvent struct {
	ExitID        string     `json:"exitID"` // Primary key (UUID)
	CapTableID    string     `json:"capTableID"`
	Type          ExitType   `json:"type"`
	ExitDate      time.Time  `json:"exitDate"`
	TotalProceeds Money      `json:"totalProceeds"`
	Status        ExitStatus `json:"status"`
	AuditFields
}

// Validate checks the exit terms at creation time.
func (e ExitEvent) Validate() error {
	switch e.Type {
	case ExitAcquisition, ExitIPO, ExitSecondary, ExitDissolution:
	default:
		return fmt.Errorf("%w: exit %s has unknown type %q", apperrors.ErrInvalidInput, e.ExitID, e.Type)
	}
	if e.TotalProceeds.IsNegative() {
		return fmt.Errorf("%w: exit %s proceeds must not be negative, got %s", apperrors.ErrInvalidInput, e.ExitID, e.TotalProceeds)
	}
	return nil
}

// TransitionTo moves the exit to the next status, enforcing the DAG.
func (e *ExitEvent) TransitionTo(next ExitStatus) error {
	for _, allowed := range exitTransitions[e.Status] {
		if next == allowed {
			e.Status = next
			return nil
		}
	}
	return fmt.Errorf("%w: exit %s cannot move from %s to %s", apperrors.ErrInvalidState, e.ExitID, e.Status, next)
}

// DistributionStatus is the lifecycle state of a single payout. Progression
// is linear with no skipping: PENDING -> PROCESSING -> {COMPLETED, FAILED}.
type DistributionStatus string

const (
	DistributionPending    DistributionStatus = "PENDING"
	DistributionProcessing DistributionStatus = "PROCESSING"
	DistributionCompleted  DistributionStatus = "COMPLETED"
	DistributionFailed     DistributionStatus = "FAILED"
)

var distributionTransitions = map[DistributionStatus][]DistributionStatus{
	DistributionPending:    {DistributionProcessing},
	DistributionProcessing: {DistributionCompleted, DistributionFailed},
}

// Distribution is one stakeholder's payout from an exit. Payment execution is
// owned by an external collaborator; the engine only produces the amounts.
type Distribution struct {
	DistributionID string             `json:"distributionID"` // Primary key (UUID)
	ExitID         string             `json:"exitID"`
	StakeholderID  string             `json:"stakeholderID"`
	GrossAmount    Money              `json:"grossAmount"`
	TaxWithheld    Money              `json:"taxWithheld"`
	NetAmount      Money              `json:"netAmount"` // gross - tax
	Status         DistributionStatus `json:"status"`
	AuditFields
}

// TransitionTo moves the distribution to the next status, enforcing the
// linear progression.
func (d *Distribution) TransitionTo(next DistributionStatus) error {
	for _, allowed := range distributionTransitions[d.Status] {
		if next == allowed {
			d.Status = next
			return nil
		}
	}
	return fmt.Errorf("%w: distribution %s cannot move from %s to %s", apperrors.ErrInvalidState, d.DistributionID, d.Status, next)
}

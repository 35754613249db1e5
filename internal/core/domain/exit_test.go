package domain_test

import (
	"testing"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannedExit() domain.ExitEvent {
	return domain.ExitEvent{
		ExitID:        "exit_1",
		CapTableID:    "ct_1",
		Type:          domain.ExitAcquisition,
		ExitDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalProceeds: domain.MustMoney("10000000"),
		Status:        domain.ExitPlanned,
	}
}

func TestExitEvent_TransitionDAG(t *testing.T) {
	tests := []struct {
		name    string
		path    []domain.ExitStatus
		wantErr bool
	}{
		{name: "planned to in progress to completed", path: []domain.ExitStatus{domain.ExitInProgress, domain.ExitCompleted}},
		{name: "planned to cancelled", path: []domain.ExitStatus{domain.ExitCancelled}},
		{name: "in progress to cancelled", path: []domain.ExitStatus{domain.ExitInProgress, domain.ExitCancelled}},
		{name: "planned cannot skip to completed", path: []domain.ExitStatus{domain.ExitCompleted}, wantErr: true},
		{name: "completed is terminal", path: []domain.ExitStatus{domain.ExitInProgress, domain.ExitCompleted, domain.ExitCancelled}, wantErr: true},
		{name: "cancelled is terminal", path: []domain.ExitStatus{domain.ExitCancelled, domain.ExitInProgress}, wantErr: true},
		{name: "no going back to planned", path: []domain.ExitStatus{domain.ExitInProgress, domain.ExitPlanned}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := plannedExit()
			var err error
			for _, next := range tt.path {
				if err = e.TransitionTo(next); err != nil {
					break
				}
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExitEvent_ValidateRejectsNegativeProceeds(t *testing.T) {
	e := plannedExit()
	e.TotalProceeds = domain.MustMoney("-100")
	assert.ErrorIs(t, e.Validate(), apperrors.ErrInvalidInput)
}

func TestDistribution_LinearProgression(t *testing.T) {
	d := domain.Distribution{
		DistributionID: "dist_1",
		ExitID:         "exit_1",
		StakeholderID:  "stk_1",
		GrossAmount:    domain.MustMoney("1000"),
		TaxWithheld:    domain.MustMoney("100"),
		NetAmount:      domain.MustMoney("900"),
		Status:         domain.DistributionPending,
	}

	assert.ErrorIs(t, d.TransitionTo(domain.DistributionCompleted), apperrors.ErrInvalidState, "no skipping PROCESSING")

	require.NoError(t, d.TransitionTo(domain.DistributionProcessing))
	require.NoError(t, d.TransitionTo(domain.DistributionCompleted))
	assert.ErrorIs(t, d.TransitionTo(domain.DistributionFailed), apperrors.ErrInvalidState, "COMPLETED is terminal")

	d2 := d
	d2.Status = domain.DistributionProcessing
	require.NoError(t, d2.TransitionTo(domain.DistributionFailed))
	assert.ErrorIs(t, d2.TransitionTo(domain.DistributionProcessing), apperrors.ErrInvalidState, "FAILED is terminal")
}

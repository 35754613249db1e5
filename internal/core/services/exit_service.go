package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type exitService struct {
	exitRepo     portsrepo.ExitRepositoryFacade
	capTableRepo portsrepo.CapTableReader
}

// NewExitService creates the exit event service.
func NewExitService(exitRepo portsrepo.ExitRepositoryFacade, capTableRepo portsrepo.CapTableReader) portssvc.ExitSvcFacade {
	return &exitService{
		exitRepo:     exitRepo,
		capTableRepo: capTableRepo,
	}
}

var _ portssvc.ExitSvcFacade = (*exitService)(nil)

var one = decimal.NewFromInt(1)

func (s *exitService) CreateExit(ctx context.Context, capTableID string, req dto.CreateExitRequest, userID string) (*domain.ExitEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	if _, err := s.capTableRepo.FindSnapshot(ctx, capTableID); err != nil {
		return nil, err
	}

	exit := domain.ExitEvent{
		ExitID:        uuid.NewString(),
		CapTableID:    capTableID,
		Type:          req.Type,
		ExitDate:      req.ExitDate,
		TotalProceeds: req.TotalProceeds,
		Status:        domain.ExitPlanned,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := exit.Validate(); err != nil {
		return nil, err
	}

	if err := s.exitRepo.SaveExit(ctx, exit); err != nil {
		logger.Error("Failed to save exit in repository", slog.String("error", err.Error()), slog.String("exit_id", exit.ExitID))
		return nil, err
	}

	logger.Info("Exit created", slog.String("exit_id", exit.ExitID), slog.String("type", string(exit.Type)), slog.String("proceeds", exit.TotalProceeds.String()))
	return &exit, nil
}

func (s *exitService) GetExitByID(ctx context.Context, exitID string) (*domain.ExitEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	exit, err := s.exitRepo.FindExitByID(ctx, exitID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find exit in repository", slog.String("error", err.Error()), slog.String("exit_id", exitID))
		}
		return nil, err
	}
	return exit, nil
}

func (s *exitService) ListExits(ctx context.Context, capTableID string) ([]domain.ExitEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	exits, err := s.exitRepo.ListExitsByCapTable(ctx, capTableID)
	if err != nil {
		logger.Error("Failed to list exits from repository", slog.String("error", err.Error()), slog.String("captable_id", capTableID))
		return nil, fmt.Errorf("failed to list exits: %w", err)
	}
	if exits == nil {
		return []domain.ExitEvent{}, nil
	}
	return exits, nil
}

func (s *exitService) ListDistributions(ctx context.Context, exitID string) ([]domain.Distribution, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	distributions, err := s.exitRepo.ListDistributionsByExit(ctx, exitID)
	if err != nil {
		logger.Error("Failed to list distributions from repository", slog.String("error", err.Error()), slog.String("exit_id", exitID))
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}
	if distributions == nil {
		return []domain.Distribution{}, nil
	}
	return distributions, nil
}

func (s *exitService) StartExit(ctx context.Context, exitID string, userID string) error {
	return s.transitionExit(ctx, exitID, domain.ExitInProgress, userID, "Exit started")
}

func (s *exitService) CancelExit(ctx context.Context, exitID string, userID string) error {
	return s.transitionExit(ctx, exitID, domain.ExitCancelled, userID, "Exit cancelled")
}

func (s *exitService) transitionExit(ctx context.Context, exitID string, next domain.ExitStatus, userID string, msg string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	exit, err := s.GetExitByID(ctx, exitID)
	if err != nil {
		return err
	}
	if err := exit.TransitionTo(next); err != nil {
		return err
	}
	if err := s.exitRepo.UpdateExitStatus(ctx, exitID, exit.Status, userID, time.Now()); err != nil {
		logger.Error("Failed to update exit status in repository", slog.String("error", err.Error()), slog.String("exit_id", exitID))
		return err
	}
	logger.Info(msg, slog.String("exit_id", exitID))
	return nil
}

// PreviewWaterfall runs the distribution math against the current snapshot
// without recording anything.
func (s *exitService) PreviewWaterfall(ctx context.Context, capTableID string, proceeds domain.Money) (*engine.WaterfallResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	snapshot, err := s.capTableRepo.FindSnapshot(ctx, capTableID)
	if err != nil {
		return nil, err
	}
	result, err := engine.ComputeWaterfall(*snapshot, proceeds)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		logger.Warn("Waterfall warning", slog.String("captable_id", capTableID), slog.String("warning", w))
	}
	return &result, nil
}

// CompleteExit runs the waterfall on the current snapshot, materializes one
// PENDING distribution per stakeholder and moves the exit to COMPLETED.
func (s *exitService) CompleteExit(ctx context.Context, exitID string, req dto.CompleteExitRequest, userID string) (*engine.WaterfallResult, []domain.Distribution, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	rate := req.TaxWithholdingRate
	if rate.IsNegative() || rate.GreaterThan(one) {
		return nil, nil, fmt.Errorf("%w: tax withholding rate must be within [0,1], got %s", apperrors.ErrInvalidInput, rate)
	}

	exit, err := s.GetExitByID(ctx, exitID)
	if err != nil {
		return nil, nil, err
	}
	// Validate the transition up front so nothing is computed for an exit in
	// the wrong state.
	if err := exit.TransitionTo(domain.ExitCompleted); err != nil {
		return nil, nil, err
	}

	snapshot, err := s.capTableRepo.FindSnapshot(ctx, exit.CapTableID)
	if err != nil {
		return nil, nil, err
	}

	result, err := engine.ComputeWaterfall(*snapshot, exit.TotalProceeds)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range result.Warnings {
		logger.Warn("Waterfall warning", slog.String("exit_id", exitID), slog.String("warning", w))
	}

	// One distribution per stakeholder, aggregating across their holdings.
	grossByStakeholder := make(map[string]domain.Money)
	for _, p := range result.Payouts {
		gross, ok := grossByStakeholder[p.StakeholderID]
		if !ok {
			gross = domain.ZeroMoney
		}
		grossByStakeholder[p.StakeholderID] = gross.Add(p.Total)
	}

	stakeholderIDs := make([]string, 0, len(grossByStakeholder))
	for id := range grossByStakeholder {
		stakeholderIDs = append(stakeholderIDs, id)
	}
	sort.Strings(stakeholderIDs)

	distributions := make([]domain.Distribution, 0, len(stakeholderIDs))
	for _, stakeholderID := range stakeholderIDs {
		gross := grossByStakeholder[stakeholderID]
		if gross.IsZero() {
			continue
		}
		tax := gross.Mul(rate).Settle()
		distributions = append(distributions, domain.Distribution{
			DistributionID: uuid.NewString(),
			ExitID:         exitID,
			StakeholderID:  stakeholderID,
			GrossAmount:    gross,
			TaxWithheld:    tax,
			NetAmount:      gross.Sub(tax),
			Status:         domain.DistributionPending,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		})
	}

	if err := s.exitRepo.SaveDistributions(ctx, distributions); err != nil {
		logger.Error("Failed to save distributions in repository", slog.String("error", err.Error()), slog.String("exit_id", exitID))
		return nil, nil, err
	}
	if err := s.exitRepo.UpdateExitStatus(ctx, exitID, domain.ExitCompleted, userID, now); err != nil {
		logger.Error("Failed to complete exit in repository", slog.String("error", err.Error()), slog.String("exit_id", exitID))
		return nil, nil, err
	}

	logger.Info("Exit completed",
		slog.String("exit_id", exitID),
		slog.String("total_distributed", result.TotalDistributed.String()),
		slog.String("residual", result.Residual.String()),
		slog.Int("distributions", len(distributions)))
	return &result, distributions, nil
}

func (s *exitService) AdvanceDistribution(ctx context.Context, distributionID string, next domain.DistributionStatus, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	distribution, err := s.exitRepo.FindDistributionByID(ctx, distributionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find distribution in repository", slog.String("error", err.Error()), slog.String("distribution_id", distributionID))
		}
		return err
	}
	if err := distribution.TransitionTo(next); err != nil {
		return err
	}
	if err := s.exitRepo.UpdateDistributionStatus(ctx, distributionID, distribution.Status, userID, time.Now()); err != nil {
		logger.Error("Failed to update distribution status in repository", slog.String("error", err.Error()), slog.String("distribution_id", distributionID))
		return err
	}
	logger.Info("Distribution advanced", slog.String("distribution_id", distributionID), slog.String("status", string(next)))
	return nil
}

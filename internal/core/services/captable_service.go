package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/google/uuid"
)

type capTableService struct {
	capTableRepo    portsrepo.CapTableRepositoryFacade
	stakeholderRepo portsrepo.StakeholderReader
}

// NewCapTableService creates the cap table service.
func NewCapTableService(capTableRepo portsrepo.CapTableRepositoryFacade, stakeholderRepo portsrepo.StakeholderReader) portssvc.CapTableSvcFacade {
	return &capTableService{
		capTableRepo:    capTableRepo,
		stakeholderRepo: stakeholderRepo,
	}
}

var _ portssvc.CapTableSvcFacade = (*capTableService)(nil)

func (s *capTableService) CreateCapTable(ctx context.Context, req dto.CreateCapTableRequest, userID string) (*domain.CapTableSnapshot, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	if req.FullyDilutedShares <= 0 {
		return nil, fmt.Errorf("%w: fully diluted shares must be positive, got %d", apperrors.ErrInvalidInput, req.FullyDilutedShares)
	}

	snapshot := domain.CapTableSnapshot{
		CapTableID:         uuid.NewString(),
		Version:            1,
		AsOf:               now,
		FullyDilutedShares: req.FullyDilutedShares,
	}

	if err := s.capTableRepo.CreateCapTable(ctx, snapshot); err != nil {
		logger.Error("Failed to create cap table in repository", slog.String("error", err.Error()), slog.String("captable_id", snapshot.CapTableID))
		return nil, err
	}

	logger.Info("Cap table created", slog.String("captable_id", snapshot.CapTableID), slog.Int64("fully_diluted_shares", snapshot.FullyDilutedShares))
	return &snapshot, nil
}

func (s *capTableService) GetSnapshot(ctx context.Context, capTableID string) (*domain.CapTableSnapshot, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	snapshot, err := s.capTableRepo.FindSnapshot(ctx, capTableID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to load snapshot from repository", slog.String("error", err.Error()), slog.String("captable_id", capTableID))
		}
		return nil, err
	}
	return snapshot, nil
}

func (s *capTableService) IssueHolding(ctx context.Context, capTableID string, req dto.IssueHoldingRequest, userID string) (*domain.SecurityHolding, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	if _, err := s.stakeholderRepo.FindStakeholderByID(ctx, req.StakeholderID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: stakeholder %s", apperrors.ErrNotFound, req.StakeholderID)
		}
		return nil, err
	}

	snapshot, err := s.capTableRepo.FindSnapshot(ctx, capTableID)
	if err != nil {
		return nil, err
	}

	var terms *domain.ShareClassTerms
	if req.Terms != nil {
		t := req.Terms.ToDomainTerms()
		terms = &t
	}

	holding := domain.SecurityHolding{
		HoldingID:          uuid.NewString(),
		CapTableID:         capTableID,
		StakeholderID:      req.StakeholderID,
		Class:              req.Class,
		Terms:              terms,
		Shares:             req.Shares,
		IssuePricePerShare: req.IssuePricePerShare,
		IssueDate:          req.IssueDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := holding.Validate(); err != nil {
		return nil, err
	}

	// The issuance must fit the authorized pool.
	if snapshot.IssuedShares()+holding.Shares > snapshot.FullyDilutedShares {
		return nil, fmt.Errorf("%w: issuing %d shares would exceed the fully-diluted count of %d (issued %d)",
			apperrors.ErrInvariantViolation, holding.Shares, snapshot.FullyDilutedShares, snapshot.IssuedShares())
	}

	if err := s.capTableRepo.SaveHolding(ctx, holding); err != nil {
		logger.Error("Failed to save holding in repository", slog.String("error", err.Error()), slog.String("holding_id", holding.HoldingID))
		return nil, err
	}

	logger.Info("Holding issued",
		slog.String("holding_id", holding.HoldingID),
		slog.String("captable_id", capTableID),
		slog.Int64("shares", holding.Shares))
	return &holding, nil
}

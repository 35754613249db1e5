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

type stakeholderService struct {
	repo portsrepo.StakeholderRepositoryFacade
}

// NewStakeholderService creates the stakeholder service.
func NewStakeholderService(repo portsrepo.StakeholderRepositoryFacade) portssvc.StakeholderSvcFacade {
	return &stakeholderService{repo: repo}
}

var _ portssvc.StakeholderSvcFacade = (*stakeholderService)(nil)

func (s *stakeholderService) CreateStakeholder(ctx context.Context, req dto.CreateStakeholderRequest, userID string) (*domain.Stakeholder, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	stakeholder := domain.Stakeholder{
		StakeholderID: uuid.NewString(),
		Name:          req.Name,
		Role:          req.Role,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := stakeholder.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveStakeholder(ctx, stakeholder); err != nil {
		logger.Error("Failed to save stakeholder in repository", slog.String("error", err.Error()), slog.String("stakeholder_id", stakeholder.StakeholderID))
		return nil, err
	}

	logger.Info("Stakeholder created", slog.String("stakeholder_id", stakeholder.StakeholderID), slog.String("role", string(stakeholder.Role)))
	return &stakeholder, nil
}

func (s *stakeholderService) GetStakeholderByID(ctx context.Context, stakeholderID string) (*domain.Stakeholder, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	stakeholder, err := s.repo.FindStakeholderByID(ctx, stakeholderID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find stakeholder in repository", slog.String("error", err.Error()), slog.String("stakeholder_id", stakeholderID))
		}
		return nil, err
	}
	return stakeholder, nil
}

func (s *stakeholderService) ListStakeholders(ctx context.Context, limit int, offset int) ([]domain.Stakeholder, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	stakeholders, err := s.repo.ListStakeholders(ctx, limit, offset)
	if err != nil {
		logger.Error("Failed to list stakeholders from repository", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}
	if stakeholders == nil {
		return []domain.Stakeholder{}, nil
	}
	return stakeholders, nil
}

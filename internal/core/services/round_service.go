package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/google/uuid"
)

type roundService struct {
	roundRepo    portsrepo.RoundRepositoryFacade
	capTableRepo portsrepo.CapTableRepositoryFacade
	cfg          engine.RoundConfig
}

// NewRoundService creates the financing round service. cfg carries the
// qualified-financing threshold and the ID generator handed to the engine.
func NewRoundService(roundRepo portsrepo.RoundRepositoryFacade, capTableRepo portsrepo.CapTableRepositoryFacade, cfg engine.RoundConfig) portssvc.RoundSvcFacade {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &roundService{
		roundRepo:    roundRepo,
		capTableRepo: capTableRepo,
		cfg:          cfg,
	}
}

var _ portssvc.RoundSvcFacade = (*roundService)(nil)

func (s *roundService) CreateRound(ctx context.Context, capTableID string, req dto.CreateRoundRequest, userID string) (*domain.EquityRound, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	if _, err := s.capTableRepo.FindSnapshot(ctx, capTableID); err != nil {
		return nil, err
	}

	round := domain.EquityRound{
		RoundID:            uuid.NewString(),
		CapTableID:         capTableID,
		Type:               req.Type,
		TargetAmount:       req.TargetAmount,
		PricePerShare:      req.PricePerShare,
		PreMoneyValuation:  req.PreMoneyValuation,
		PostMoneyValuation: req.PostMoneyValuation,
		NewShareTerms:      req.NewShareTerms.ToDomainTerms(),
		Status:             domain.RoundPlanning,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := round.Validate(); err != nil {
		return nil, err
	}

	if err := s.roundRepo.SaveRound(ctx, round); err != nil {
		logger.Error("Failed to save round in repository", slog.String("error", err.Error()), slog.String("round_id", round.RoundID))
		return nil, err
	}

	logger.Info("Round created", slog.String("round_id", round.RoundID), slog.String("type", string(round.Type)))
	return &round, nil
}

func (s *roundService) GetRoundByID(ctx context.Context, roundID string) (*domain.EquityRound, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	round, err := s.roundRepo.FindRoundByID(ctx, roundID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find round in repository", slog.String("error", err.Error()), slog.String("round_id", roundID))
		}
		return nil, err
	}
	return round, nil
}

func (s *roundService) ListRounds(ctx context.Context, capTableID string) ([]domain.EquityRound, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	rounds, err := s.roundRepo.ListRoundsByCapTable(ctx, capTableID)
	if err != nil {
		logger.Error("Failed to list rounds from repository", slog.String("error", err.Error()), slog.String("captable_id", capTableID))
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	if rounds == nil {
		return []domain.EquityRound{}, nil
	}
	return rounds, nil
}

func (s *roundService) OpenRound(ctx context.Context, roundID string, userID string) error {
	round, err := s.GetRoundByID(ctx, roundID)
	if err != nil {
		return err
	}
	if err := round.Open(); err != nil {
		return err
	}
	return s.updateStatus(ctx, roundID, round.Status, userID, "Round opened")
}

func (s *roundService) CancelRound(ctx context.Context, roundID string, userID string) error {
	round, err := s.GetRoundByID(ctx, roundID)
	if err != nil {
		return err
	}
	if err := round.Cancel(); err != nil {
		return err
	}
	return s.updateStatus(ctx, roundID, round.Status, userID, "Round cancelled")
}

// ApplyRound runs the dilution engine against the current snapshot and
// persists the successor atomically. The caller states the snapshot version
// it priced against; applying on top of any other version is refused.
func (s *roundService) ApplyRound(ctx context.Context, roundID string, req dto.ApplyRoundRequest, userID string) (*engine.IssuanceReport, *domain.CapTableSnapshot, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	round, err := s.GetRoundByID(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := s.capTableRepo.FindSnapshot(ctx, round.CapTableID)
	if err != nil {
		return nil, nil, err
	}
	if snapshot.Version != req.ExpectedVersion {
		return nil, nil, fmt.Errorf("%w: cap table %s is at version %d, request expected %d",
			apperrors.ErrStaleSnapshot, round.CapTableID, snapshot.Version, req.ExpectedVersion)
	}

	investments := make([]engine.NewInvestment, len(req.Investments))
	for i, inv := range req.Investments {
		investments[i] = engine.NewInvestment{
			StakeholderID: inv.StakeholderID,
			Amount:        inv.Amount,
		}
	}

	next, report, err := engine.ApplyRound(*snapshot, *round, investments, s.cfg, req.AsOf)
	if err != nil {
		return nil, nil, err
	}

	changes := portsrepo.ApplySnapshotChanges{
		ConvertedSafeIDs: report.ConvertedSafeIDs,
		ConvertedNoteIDs: report.ConvertedNoteIDs,
	}
	for _, iss := range report.Issuances {
		changes.NewHoldingIDs = append(changes.NewHoldingIDs, iss.HoldingID)
	}

	if err := s.capTableRepo.ApplySnapshot(ctx, next, req.ExpectedVersion, changes, userID); err != nil {
		if !errors.Is(err, apperrors.ErrStaleSnapshot) {
			logger.Error("Failed to persist successor snapshot", slog.String("error", err.Error()), slog.String("round_id", roundID))
		}
		return nil, nil, err
	}

	if err := s.roundRepo.UpdateRoundStatus(ctx, roundID, domain.RoundClosed, userID, time.Now()); err != nil {
		logger.Error("Failed to close round after application", slog.String("error", err.Error()), slog.String("round_id", roundID))
		return nil, nil, err
	}

	logger.Info("Round applied",
		slog.String("round_id", roundID),
		slog.String("captable_id", round.CapTableID),
		slog.Bool("qualified", report.Qualified),
		slog.String("total_raised", report.TotalRaised.String()),
		slog.Int64("shares_issued", report.SharesIssued),
		slog.Int64("new_version", next.Version))
	return &report, &next, nil
}

func (s *roundService) updateStatus(ctx context.Context, roundID string, status domain.RoundStatus, userID string, msg string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	if err := s.roundRepo.UpdateRoundStatus(ctx, roundID, status, userID, time.Now()); err != nil {
		logger.Error("Failed to update round status in repository", slog.String("error", err.Error()), slog.String("round_id", roundID))
		return err
	}
	logger.Info(msg, slog.String("round_id", roundID))
	return nil
}

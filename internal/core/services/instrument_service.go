package services

import (
	"context"
	"errors"
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

type instrumentService struct {
	instrumentRepo portsrepo.InstrumentRepositoryFacade
	capTableRepo   portsrepo.CapTableReader
}

// NewInstrumentService creates the SAFE/note service.
func NewInstrumentService(instrumentRepo portsrepo.InstrumentRepositoryFacade, capTableRepo portsrepo.CapTableReader) portssvc.InstrumentSvcFacade {
	return &instrumentService{
		instrumentRepo: instrumentRepo,
		capTableRepo:   capTableRepo,
	}
}

var _ portssvc.InstrumentSvcFacade = (*instrumentService)(nil)

func (s *instrumentService) IssueSafe(ctx context.Context, capTableID string, req dto.CreateSafeRequest, userID string) (*domain.SafeAgreement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	if _, err := s.capTableRepo.FindSnapshot(ctx, capTableID); err != nil {
		return nil, err
	}

	safe := domain.SafeAgreement{
		SafeID:          uuid.NewString(),
		CapTableID:      capTableID,
		StakeholderID:   req.StakeholderID,
		Principal:       req.Principal,
		Kind:            req.Kind,
		ValuationCap:    req.ValuationCap,
		DiscountPercent: req.DiscountPercent,
		ProRataRights:   req.ProRataRights,
		Status:          domain.SafeActive,
		IssueDate:       req.IssueDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := safe.Validate(); err != nil {
		return nil, err
	}

	if err := s.instrumentRepo.SaveSafe(ctx, safe); err != nil {
		logger.Error("Failed to save SAFE in repository", slog.String("error", err.Error()), slog.String("safe_id", safe.SafeID))
		return nil, err
	}

	logger.Info("SAFE issued", slog.String("safe_id", safe.SafeID), slog.String("captable_id", capTableID), slog.String("principal", safe.Principal.String()))
	return &safe, nil
}

func (s *instrumentService) IssueNote(ctx context.Context, capTableID string, req dto.CreateNoteRequest, userID string) (*domain.ConvertibleNote, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	if _, err := s.capTableRepo.FindSnapshot(ctx, capTableID); err != nil {
		return nil, err
	}

	note := domain.ConvertibleNote{
		NoteID:          uuid.NewString(),
		CapTableID:      capTableID,
		StakeholderID:   req.StakeholderID,
		Principal:       req.Principal,
		InterestRate:    req.InterestRate,
		Compounding:     req.Compounding,
		IssueDate:       req.IssueDate,
		MaturityDate:    req.MaturityDate,
		ValuationCap:    req.ValuationCap,
		DiscountPercent: req.DiscountPercent,
		Status:          domain.NoteActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := note.Validate(); err != nil {
		return nil, err
	}

	if err := s.instrumentRepo.SaveNote(ctx, note); err != nil {
		logger.Error("Failed to save note in repository", slog.String("error", err.Error()), slog.String("note_id", note.NoteID))
		return nil, err
	}

	logger.Info("Convertible note issued", slog.String("note_id", note.NoteID), slog.String("captable_id", capTableID), slog.String("principal", note.Principal.String()))
	return &note, nil
}

func (s *instrumentService) GetSafeByID(ctx context.Context, safeID string) (*domain.SafeAgreement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	safe, err := s.instrumentRepo.FindSafeByID(ctx, safeID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find SAFE in repository", slog.String("error", err.Error()), slog.String("safe_id", safeID))
		}
		return nil, err
	}
	return safe, nil
}

func (s *instrumentService) GetNoteByID(ctx context.Context, noteID string) (*domain.ConvertibleNote, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	note, err := s.instrumentRepo.FindNoteByID(ctx, noteID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find note in repository", slog.String("error", err.Error()), slog.String("note_id", noteID))
		}
		return nil, err
	}
	return note, nil
}

func (s *instrumentService) QuoteAccruedInterest(ctx context.Context, noteID string, asOf time.Time) (domain.Money, error) {
	note, err := s.GetNoteByID(ctx, noteID)
	if err != nil {
		return domain.ZeroMoney, err
	}
	return engine.Accrue(*note, asOf)
}

func (s *instrumentService) DissolveSafe(ctx context.Context, safeID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	safe, err := s.GetSafeByID(ctx, safeID)
	if err != nil {
		return err
	}
	if err := safe.Dissolve(); err != nil {
		return err
	}
	if err := s.instrumentRepo.UpdateSafeStatus(ctx, safeID, safe.Status, userID, time.Now()); err != nil {
		logger.Error("Failed to update SAFE status in repository", slog.String("error", err.Error()), slog.String("safe_id", safeID))
		return err
	}
	logger.Info("SAFE dissolved", slog.String("safe_id", safeID))
	return nil
}

func (s *instrumentService) RepayNote(ctx context.Context, noteID string, userID string) error {
	return s.transitionNote(ctx, noteID, userID, (*domain.ConvertibleNote).MarkRepaid, "Note repaid")
}

func (s *instrumentService) DefaultNote(ctx context.Context, noteID string, userID string) error {
	return s.transitionNote(ctx, noteID, userID, (*domain.ConvertibleNote).MarkDefaulted, "Note defaulted")
}

func (s *instrumentService) transitionNote(ctx context.Context, noteID string, userID string, transition func(*domain.ConvertibleNote) error, msg string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	note, err := s.GetNoteByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := transition(note); err != nil {
		return err
	}
	if err := s.instrumentRepo.UpdateNoteStatus(ctx, noteID, note.Status, userID, time.Now()); err != nil {
		logger.Error("Failed to update note status in repository", slog.String("error", err.Error()), slog.String("note_id", noteID))
		return err
	}
	logger.Info(msg, slog.String("note_id", noteID))
	return nil
}

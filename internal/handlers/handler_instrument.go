package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// instrumentHandler handles HTTP requests related to SAFEs and convertible notes.
type instrumentHandler struct {
	instrumentService portssvc.InstrumentSvcFacade
}

func newInstrumentHandler(is portssvc.InstrumentSvcFacade) *instrumentHandler {
	return &instrumentHandler{
		instrumentService: is,
	}
}

// registerInstrumentRoutes registers routes related to SAFEs and notes.
func registerInstrumentRoutes(rg *gin.RouterGroup, instrumentService portssvc.InstrumentSvcFacade) {
	h := newInstrumentHandler(instrumentService)

	capTables := rg.Group("/captables")
	{
		capTables.POST("/:id/safes", h.issueSafe)
		capTables.POST("/:id/notes", h.issueNote)
	}

	safes := rg.Group("/safes")
	{
		safes.GET("/:id", h.getSafe)
		safes.POST("/:id/dissolve", h.dissolveSafe)
	}

	notes := rg.Group("/notes")
	{
		notes.GET("/:id", h.getNote)
		notes.GET("/:id/interest", h.quoteAccruedInterest)
		notes.POST("/:id/repay", h.repayNote)
		notes.POST("/:id/default", h.defaultNote)
	}
}

// issueSafe godoc
// @Summary Record a SAFE against a cap table
// @Tags instruments
// @Accept  json
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Param   safe body dto.CreateSafeRequest true "SAFE terms"
// @Success 201 {object} dto.SafeResponse
// @Router /captables/{id}/safes [post]
func (h *instrumentHandler) issueSafe(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	var req dto.CreateSafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IssueSafe", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("captable_id", capTableID))
	logger.Info("Received request to issue SAFE", slog.String("stakeholder_id", req.StakeholderID))

	safe, err := h.instrumentService.IssueSafe(c.Request.Context(), capTableID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table not found for SAFE issuance")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error issuing SAFE", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to issue SAFE in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue SAFE"})
		}
		return
	}

	logger.Info("SAFE issued successfully", slog.String("safe_id", safe.SafeID))
	c.JSON(http.StatusCreated, safe)
}

// issueNote godoc
// @Summary Record a convertible note against a cap table
// @Tags instruments
// @Accept  json
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Param   note body dto.CreateNoteRequest true "Note terms"
// @Success 201 {object} dto.NoteResponse
// @Router /captables/{id}/notes [post]
func (h *instrumentHandler) issueNote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IssueNote", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("captable_id", capTableID))
	logger.Info("Received request to issue note", slog.String("stakeholder_id", req.StakeholderID))

	note, err := h.instrumentService.IssueNote(c.Request.Context(), capTableID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table not found for note issuance")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error issuing note", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to issue note in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue note"})
		}
		return
	}

	logger.Info("Note issued successfully", slog.String("note_id", note.NoteID))
	c.JSON(http.StatusCreated, note)
}

// getSafe godoc
// @Summary Get a SAFE by ID
// @Tags instruments
// @Produce  json
// @Param   id path string true "SAFE ID"
// @Success 200 {object} dto.SafeResponse
// @Router /safes/{id} [get]
func (h *instrumentHandler) getSafe(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	safeID := c.Param("id")

	safe, err := h.instrumentService.GetSafeByID(c.Request.Context(), safeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("SAFE not found", slog.String("safe_id", safeID))
			c.JSON(http.StatusNotFound, gin.H{"error": "SAFE not found"})
		} else {
			logger.Error("Failed to get SAFE from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve SAFE"})
		}
		return
	}

	c.JSON(http.StatusOK, safe)
}

// getNote godoc
// @Summary Get a convertible note by ID
// @Tags instruments
// @Produce  json
// @Param   id path string true "Note ID"
// @Success 200 {object} dto.NoteResponse
// @Router /notes/{id} [get]
func (h *instrumentHandler) getNote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	noteID := c.Param("id")

	note, err := h.instrumentService.GetNoteByID(c.Request.Context(), noteID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Note not found", slog.String("note_id", noteID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		} else {
			logger.Error("Failed to get note from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve note"})
		}
		return
	}

	c.JSON(http.StatusOK, note)
}

// quoteAccruedInterest godoc
// @Summary Quote a note's accrued interest as of a date
// @Tags instruments
// @Produce  json
// @Param   id path string true "Note ID"
// @Param   asOf query string false "As-of date (RFC 3339), defaults to now"
// @Success 200 {object} dto.AccruedInterestResponse
// @Router /notes/{id}/interest [get]
func (h *instrumentHandler) quoteAccruedInterest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	noteID := c.Param("id")

	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Warn("Failed to parse asOf query param", slog.String("as_of", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected RFC 3339"})
			return
		}
		asOf = parsed
	}

	interest, err := h.instrumentService.QuoteAccruedInterest(c.Request.Context(), noteID, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Note not found for interest quote", slog.String("note_id", noteID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error quoting interest", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to quote accrued interest", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote accrued interest"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.AccruedInterestResponse{NoteID: noteID, AsOf: asOf, Interest: interest})
}

// dissolveSafe godoc
// @Summary Dissolve an ACTIVE SAFE
// @Tags instruments
// @Produce  json
// @Param   id path string true "SAFE ID"
// @Success 204 "No Content"
// @Router /safes/{id}/dissolve [post]
func (h *instrumentHandler) dissolveSafe(c *gin.Context) {
	h.transition(c, "SAFE", c.Param("id"), h.instrumentService.DissolveSafe)
}

// repayNote godoc
// @Summary Mark an ACTIVE note as repaid
// @Tags instruments
// @Produce  json
// @Param   id path string true "Note ID"
// @Success 204 "No Content"
// @Router /notes/{id}/repay [post]
func (h *instrumentHandler) repayNote(c *gin.Context) {
	h.transition(c, "note", c.Param("id"), h.instrumentService.RepayNote)
}

// defaultNote godoc
// @Summary Mark an ACTIVE note as defaulted
// @Tags instruments
// @Produce  json
// @Param   id path string true "Note ID"
// @Success 204 "No Content"
// @Router /notes/{id}/default [post]
func (h *instrumentHandler) defaultNote(c *gin.Context) {
	h.transition(c, "note", c.Param("id"), h.instrumentService.DefaultNote)
}

func (h *instrumentHandler) transition(c *gin.Context, kind, id string, op func(ctx context.Context, id, userID string) error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := op(c.Request.Context(), id, actorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Instrument not found for transition", slog.String("id", id))
			c.JSON(http.StatusNotFound, gin.H{"error": kind + " not found"})
		} else if errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Invalid instrument state transition", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to transition instrument", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update " + kind})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

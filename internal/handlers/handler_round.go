package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/angelstack/captable_engine/internal/apperrors"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// roundHandler handles HTTP requests related to equity rounds.
type roundHandler struct {
	roundService portssvc.RoundSvcFacade
}

func newRoundHandler(rs portssvc.RoundSvcFacade) *roundHandler {
	return &roundHandler{
		roundService: rs,
	}
}

// registerRoundRoutes registers routes related to equity rounds.
func registerRoundRoutes(rg *gin.RouterGroup, roundService portssvc.RoundSvcFacade) {
	h := newRoundHandler(roundService)

	capTables := rg.Group("/captables")
	{
		capTables.POST("/:id/rounds", h.createRound)
		capTables.GET("/:id/rounds", h.listRounds)
	}

	rounds := rg.Group("/rounds")
	{
		rounds.GET("/:id", h.getRound)
		rounds.POST("/:id/open", h.openRound)
		rounds.POST("/:id/cancel", h.cancelRound)
		rounds.POST("/:id/apply", h.applyRound)
	}
}

// createRound godoc
// @Summary Plan a new equity round
// @Tags rounds
// @Accept  json
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Param   round body dto.CreateRoundRequest true "Round terms"
// @Success 201 {object} dto.RoundResponse
// @Router /captables/{id}/rounds [post]
func (h *roundHandler) createRound(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	var req dto.CreateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateRound", slog.String("error", err.Error()))
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
	logger.Info("Received request to create round", slog.String("type", string(req.Type)))

	round, err := h.roundService.CreateRound(c.Request.Context(), capTableID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table not found for round creation")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error creating round", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create round in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create round"})
		}
		return
	}

	logger.Info("Round created successfully", slog.String("round_id", round.RoundID))
	c.JSON(http.StatusCreated, dto.ToRoundResponse(round))
}

// listRounds godoc
// @Summary List rounds recorded against a cap table
// @Tags rounds
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Success 200 {array} dto.RoundResponse
// @Router /captables/{id}/rounds [get]
func (h *roundHandler) listRounds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	rounds, err := h.roundService.ListRounds(c.Request.Context(), capTableID)
	if err != nil {
		logger.Error("Failed to list rounds from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rounds"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListRoundResponse(rounds))
}

// getRound godoc
// @Summary Get a round by ID
// @Tags rounds
// @Produce  json
// @Param   id path string true "Round ID"
// @Success 200 {object} dto.RoundResponse
// @Router /rounds/{id} [get]
func (h *roundHandler) getRound(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roundID := c.Param("id")

	round, err := h.roundService.GetRoundByID(c.Request.Context(), roundID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Round not found", slog.String("round_id", roundID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
		} else {
			logger.Error("Failed to get round from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve round"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRoundResponse(round))
}

// openRound godoc
// @Summary Open a PLANNING round
// @Tags rounds
// @Produce  json
// @Param   id path string true "Round ID"
// @Success 204 "No Content"
// @Router /rounds/{id}/open [post]
func (h *roundHandler) openRound(c *gin.Context) {
	h.transition(c, h.roundService.OpenRound)
}

// cancelRound godoc
// @Summary Cancel a PLANNING or OPEN round
// @Tags rounds
// @Produce  json
// @Param   id path string true "Round ID"
// @Success 204 "No Content"
// @Router /rounds/{id}/cancel [post]
func (h *roundHandler) cancelRound(c *gin.Context) {
	h.transition(c, h.roundService.CancelRound)
}

func (h *roundHandler) transition(c *gin.Context, op func(ctx context.Context, roundID, userID string) error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roundID := c.Param("id")

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := op(c.Request.Context(), roundID, actorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Round not found for transition", slog.String("round_id", roundID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
		} else if errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Invalid round state transition", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to transition round", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update round"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// applyRound godoc
// @Summary Apply a round to its cap table
// @Description Converts qualifying SAFEs and notes, issues new preferred stock, closes the round and returns the issuance report with the successor snapshot
// @Tags rounds
// @Accept  json
// @Produce  json
// @Param   id path string true "Round ID"
// @Param   application body dto.ApplyRoundRequest true "Investments and expected snapshot version"
// @Success 200 {object} dto.ApplyRoundResponse
// @Failure 409 {object} map[string]string "Stale snapshot version or round not open"
// @Router /rounds/{id}/apply [post]
func (h *roundHandler) applyRound(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roundID := c.Param("id")

	var req dto.ApplyRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplyRound", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("round_id", roundID))
	logger.Info("Received request to apply round", slog.Int64("expected_version", req.ExpectedVersion), slog.Int("investments", len(req.Investments)))

	report, snapshot, err := h.roundService.ApplyRound(c.Request.Context(), roundID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Round or cap table not found for application", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrStaleSnapshot) {
			logger.Warn("Stale snapshot version applying round", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Round not in an applicable state", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error applying round", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvariantViolation) {
			logger.Error("Round application violated a cap table invariant", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to apply round in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply round"})
		}
		return
	}

	logger.Info("Round applied successfully", slog.Int64("new_version", snapshot.Version))
	c.JSON(http.StatusOK, dto.ApplyRoundResponse{Report: *report, Snapshot: dto.ToSnapshotResponse(snapshot)})
}

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

// exitHandler handles HTTP requests related to exit events and distributions.
type exitHandler struct {
	exitService portssvc.ExitSvcFacade
}

func newExitHandler(es portssvc.ExitSvcFacade) *exitHandler {
	return &exitHandler{
		exitService: es,
	}
}

// registerExitRoutes registers routes related to exits and distributions.
func registerExitRoutes(rg *gin.RouterGroup, exitService portssvc.ExitSvcFacade) {
	h := newExitHandler(exitService)

	capTables := rg.Group("/captables")
	{
		capTables.POST("/:id/exits", h.createExit)
		capTables.GET("/:id/exits", h.listExits)
		capTables.POST("/:id/waterfall", h.previewWaterfall)
	}

	exits := rg.Group("/exits")
	{
		exits.GET("/:id", h.getExit)
		exits.POST("/:id/start", h.startExit)
		exits.POST("/:id/cancel", h.cancelExit)
		exits.POST("/:id/complete", h.completeExit)
		exits.GET("/:id/distributions", h.listDistributions)
	}

	distributions := rg.Group("/distributions")
	{
		distributions.PATCH("/:id/status", h.updateDistributionStatus)
	}
}

// createExit godoc
// @Summary Record a planned exit event
// @Tags exits
// @Accept  json
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Param   exit body dto.CreateExitRequest true "Exit details"
// @Success 201 {object} dto.ExitResponse
// @Router /captables/{id}/exits [post]
func (h *exitHandler) createExit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	var req dto.CreateExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateExit", slog.String("error", err.Error()))
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
	logger.Info("Received request to create exit", slog.String("type", string(req.Type)))

	exit, err := h.exitService.CreateExit(c.Request.Context(), capTableID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table not found for exit creation")
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error creating exit", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create exit in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create exit"})
		}
		return
	}

	logger.Info("Exit created successfully", slog.String("exit_id", exit.ExitID))
	c.JSON(http.StatusCreated, dto.ToExitResponse(exit))
}

// listExits godoc
// @Summary List exits recorded against a cap table
// @Tags exits
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Success 200 {array} dto.ExitResponse
// @Router /captables/{id}/exits [get]
func (h *exitHandler) listExits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	exits, err := h.exitService.ListExits(c.Request.Context(), capTableID)
	if err != nil {
		logger.Error("Failed to list exits from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list exits"})
		return
	}

	responses := make([]dto.ExitResponse, len(exits))
	for i, e := range exits {
		responses[i] = dto.ToExitResponse(&e)
	}

	c.JSON(http.StatusOK, responses)
}

// previewWaterfall godoc
// @Summary Preview the distribution waterfall at a hypothetical proceeds amount
// @Description Runs the waterfall against the current snapshot without touching any exit record
// @Tags exits
// @Accept  json
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Param   preview body dto.WaterfallPreviewRequest true "Hypothetical proceeds"
// @Success 200 {object} dto.WaterfallResponse
// @Router /captables/{id}/waterfall [post]
func (h *exitHandler) previewWaterfall(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	var req dto.WaterfallPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PreviewWaterfall", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("captable_id", capTableID))
	logger.Info("Received request to preview waterfall", slog.String("proceeds", req.Proceeds.String()))

	result, err := h.exitService.PreviewWaterfall(c.Request.Context(), capTableID, req.Proceeds)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table not found for waterfall preview")
			c.JSON(http.StatusNotFound, gin.H{"error": "Cap table not found"})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error previewing waterfall", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvariantViolation) {
			logger.Error("Waterfall computation violated an invariant", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to preview waterfall", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to preview waterfall"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.WaterfallResponse{Result: *result})
}

// getExit godoc
// @Summary Get an exit by ID
// @Tags exits
// @Produce  json
// @Param   id path string true "Exit ID"
// @Success 200 {object} dto.ExitResponse
// @Router /exits/{id} [get]
func (h *exitHandler) getExit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	exitID := c.Param("id")

	exit, err := h.exitService.GetExitByID(c.Request.Context(), exitID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Exit not found", slog.String("exit_id", exitID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Exit not found"})
		} else {
			logger.Error("Failed to get exit from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve exit"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToExitResponse(exit))
}

// startExit godoc
// @Summary Move a PLANNED exit to IN_PROGRESS
// @Tags exits
// @Produce  json
// @Param   id path string true "Exit ID"
// @Success 204 "No Content"
// @Router /exits/{id}/start [post]
func (h *exitHandler) startExit(c *gin.Context) {
	h.transition(c, h.exitService.StartExit)
}

// cancelExit godoc
// @Summary Cancel a PLANNED or IN_PROGRESS exit
// @Tags exits
// @Produce  json
// @Param   id path string true "Exit ID"
// @Success 204 "No Content"
// @Router /exits/{id}/cancel [post]
func (h *exitHandler) cancelExit(c *gin.Context) {
	h.transition(c, h.exitService.CancelExit)
}

func (h *exitHandler) transition(c *gin.Context, op func(ctx context.Context, exitID, userID string) error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	exitID := c.Param("id")

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := op(c.Request.Context(), exitID, actorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Exit not found for transition", slog.String("exit_id", exitID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Exit not found"})
		} else if errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Invalid exit state transition", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to transition exit", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update exit"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// completeExit godoc
// @Summary Complete an IN_PROGRESS exit
// @Description Runs the waterfall on the current snapshot, materializes PENDING distributions per stakeholder and moves the exit to COMPLETED
// @Tags exits
// @Accept  json
// @Produce  json
// @Param   id path string true "Exit ID"
// @Param   settlement body dto.CompleteExitRequest true "Settlement inputs"
// @Success 200 {object} dto.WaterfallResponse
// @Failure 409 {object} map[string]string "Exit not in progress"
// @Router /exits/{id}/complete [post]
func (h *exitHandler) completeExit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	exitID := c.Param("id")

	var req dto.CompleteExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CompleteExit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("exit_id", exitID))
	logger.Info("Received request to complete exit")

	result, distributions, err := h.exitService.CompleteExit(c.Request.Context(), exitID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Exit or cap table not found for completion", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Exit not in a completable state", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error completing exit", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvariantViolation) {
			logger.Error("Exit completion violated an invariant", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to complete exit in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete exit"})
		}
		return
	}

	logger.Info("Exit completed successfully", slog.Int("distributions", len(distributions)))
	c.JSON(http.StatusOK, gin.H{
		"result":        result,
		"distributions": dto.ToListDistributionResponse(distributions),
	})
}

// listDistributions godoc
// @Summary List the payouts materialized for an exit
// @Tags exits
// @Produce  json
// @Param   id path string true "Exit ID"
// @Success 200 {array} dto.DistributionResponse
// @Router /exits/{id}/distributions [get]
func (h *exitHandler) listDistributions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	exitID := c.Param("id")

	distributions, err := h.exitService.ListDistributions(c.Request.Context(), exitID)
	if err != nil {
		logger.Error("Failed to list distributions from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list distributions"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListDistributionResponse(distributions))
}

// updateDistributionStatus godoc
// @Summary Advance a distribution along its payout progression
// @Tags exits
// @Accept  json
// @Produce  json
// @Param   id path string true "Distribution ID"
// @Param   status body dto.UpdateDistributionStatusRequest true "Next status"
// @Success 204 "No Content"
// @Router /distributions/{id}/status [patch]
func (h *exitHandler) updateDistributionStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	distributionID := c.Param("id")

	var req dto.UpdateDistributionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDistributionStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("distribution_id", distributionID))
	logger.Info("Received request to advance distribution", slog.String("next_status", string(req.Status)))

	if err := h.exitService.AdvanceDistribution(c.Request.Context(), distributionID, req.Status, actorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Distribution not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Distribution not found"})
		} else if errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Invalid distribution transition", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to advance distribution", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update distribution"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

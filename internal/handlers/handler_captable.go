package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/angelstack/captable_engine/internal/apperrors"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// capTableHandler handles HTTP requests related to cap tables and holdings.
type capTableHandler struct {
	capTableService portssvc.CapTableSvcFacade
}

func newCapTableHandler(cs portssvc.CapTableSvcFacade) *capTableHandler {
	return &capTableHandler{
		capTableService: cs,
	}
}

// registerCapTableRoutes registers routes related to cap tables. Instrument,
// round and exit routes nested under /captables are registered by their own
// handlers against the same group.
func registerCapTableRoutes(rg *gin.RouterGroup, capTableService portssvc.CapTableSvcFacade) {
	h := newCapTableHandler(capTableService)

	capTables := rg.Group("/captables")
	{
		capTables.POST("", h.createCapTable)
		capTables.GET("/:id/snapshot", h.getSnapshot)
		capTables.POST("/:id/holdings", h.issueHolding)
	}
}

// createCapTable godoc
// @Summary Open a new cap table
// @Tags captables
// @Accept  json
// @Produce  json
// @Param   captable body dto.CreateCapTableRequest true "Cap table details"
// @Success 201 {object} dto.SnapshotResponse
// @Router /captables [post]
func (h *capTableHandler) createCapTable(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateCapTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCapTable", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received request to create cap table", slog.Int64("fully_diluted_shares", req.FullyDilutedShares))

	snapshot, err := h.capTableService.CreateCapTable(c.Request.Context(), req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error creating cap table", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create cap table in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cap table"})
		}
		return
	}

	logger.Info("Cap table created successfully", slog.String("captable_id", snapshot.CapTableID))
	c.JSON(http.StatusCreated, dto.ToSnapshotResponse(snapshot))
}

// getSnapshot godoc
// @Summary Get the current snapshot of a cap table
// @Description Returns the holdings with computed ownership percentages plus outstanding instruments
// @Tags captables
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Success 200 {object} dto.SnapshotResponse
// @Router /captables/{id}/snapshot [get]
func (h *capTableHandler) getSnapshot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	snapshot, err := h.capTableService.GetSnapshot(c.Request.Context(), capTableID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table not found", slog.String("captable_id", capTableID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Cap table not found"})
		} else {
			logger.Error("Failed to get snapshot from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve snapshot"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSnapshotResponse(snapshot))
}

// issueHolding godoc
// @Summary Issue a block of shares on a cap table
// @Tags captables
// @Accept  json
// @Produce  json
// @Param   id path string true "Cap table ID"
// @Param   holding body dto.IssueHoldingRequest true "Holding details"
// @Success 201 {object} dto.HoldingResponse
// @Router /captables/{id}/holdings [post]
func (h *capTableHandler) issueHolding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	capTableID := c.Param("id")

	var req dto.IssueHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IssueHolding", slog.String("error", err.Error()))
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
	logger.Info("Received request to issue holding", slog.String("stakeholder_id", req.StakeholderID), slog.Int64("shares", req.Shares))

	holding, err := h.capTableService.IssueHolding(c.Request.Context(), capTableID, req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Cap table or stakeholder not found for issuance", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error issuing holding", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrInvariantViolation) {
			logger.Warn("Issuance would over-allocate the share pool", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to issue holding in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue holding"})
		}
		return
	}

	logger.Info("Holding issued successfully", slog.String("holding_id", holding.HoldingID))
	c.JSON(http.StatusCreated, dto.HoldingResponse{
		HoldingID:          holding.HoldingID,
		StakeholderID:      holding.StakeholderID,
		Class:              holding.Class,
		Shares:             holding.Shares,
		IssuePricePerShare: holding.IssuePricePerShare,
		IssueDate:          holding.IssueDate,
	})
}

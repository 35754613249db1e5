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

// stakeholderHandler handles HTTP requests related to stakeholders.
type stakeholderHandler struct {
	stakeholderService portssvc.StakeholderSvcFacade
}

func newStakeholderHandler(ss portssvc.StakeholderSvcFacade) *stakeholderHandler {
	return &stakeholderHandler{
		stakeholderService: ss,
	}
}

// registerStakeholderRoutes registers routes related to stakeholders.
func registerStakeholderRoutes(rg *gin.RouterGroup, stakeholderService portssvc.StakeholderSvcFacade) {
	h := newStakeholderHandler(stakeholderService)

	stakeholders := rg.Group("/stakeholders")
	{
		stakeholders.POST("", h.createStakeholder)
		stakeholders.GET("/:id", h.getStakeholder)
		stakeholders.GET("", h.listStakeholders)
	}
}

// createStakeholder godoc
// @Summary Register a new stakeholder
// @Tags stakeholders
// @Accept  json
// @Produce  json
// @Param   stakeholder body dto.CreateStakeholderRequest true "Stakeholder details"
// @Success 201 {object} dto.StakeholderResponse
// @Router /stakeholders [post]
func (h *stakeholderHandler) createStakeholder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateStakeholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateStakeholder", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger.Info("Received request to create stakeholder", slog.String("name", req.Name), slog.String("role", string(req.Role)))

	stakeholder, err := h.stakeholderService.CreateStakeholder(c.Request.Context(), req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error creating stakeholder", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create stakeholder in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stakeholder"})
		}
		return
	}

	logger.Info("Stakeholder created successfully", slog.String("stakeholder_id", stakeholder.StakeholderID))
	c.JSON(http.StatusCreated, dto.ToStakeholderResponse(stakeholder))
}

// getStakeholder godoc
// @Summary Get a stakeholder by ID
// @Tags stakeholders
// @Produce  json
// @Param   id path string true "Stakeholder ID"
// @Success 200 {object} dto.StakeholderResponse
// @Router /stakeholders/{id} [get]
func (h *stakeholderHandler) getStakeholder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	stakeholderID := c.Param("id")

	stakeholder, err := h.stakeholderService.GetStakeholderByID(c.Request.Context(), stakeholderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Stakeholder not found", slog.String("stakeholder_id", stakeholderID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Stakeholder not found"})
		} else {
			logger.Error("Failed to get stakeholder from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stakeholder"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToStakeholderResponse(stakeholder))
}

// listStakeholders godoc
// @Summary List stakeholders
// @Tags stakeholders
// @Produce  json
// @Param   limit query int false "Limit number of results" default(20)
// @Param   offset query int false "Offset for pagination" default(0)
// @Success 200 {object} dto.ListStakeholdersResponse
// @Router /stakeholders [get]
func (h *stakeholderHandler) listStakeholders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListStakeholdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListStakeholders", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	stakeholders, err := h.stakeholderService.ListStakeholders(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list stakeholders from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stakeholders"})
		return
	}

	responses := make([]dto.StakeholderResponse, len(stakeholders))
	for i, s := range stakeholders {
		responses[i] = dto.ToStakeholderResponse(&s)
	}

	logger.Info("Stakeholders listed successfully", slog.Int("count", len(responses)))
	c.JSON(http.StatusOK, dto.ListStakeholdersResponse{Stakeholders: responses})
}

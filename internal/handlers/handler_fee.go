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

// feeHandler handles HTTP requests for fee quotes.
type feeHandler struct {
	feeService portssvc.FeeSvc
}

func newFeeHandler(fs portssvc.FeeSvc) *feeHandler {
	return &feeHandler{
		feeService: fs,
	}
}

// registerFeeRoutes registers fee quote routes.
func registerFeeRoutes(rg *gin.RouterGroup, feeService portssvc.FeeSvc) {
	h := newFeeHandler(feeService)

	fees := rg.Group("/fees")
	{
		fees.POST("/platform", h.quotePlatformFee)
		fees.POST("/carry", h.quoteCarryFee)
		fees.POST("/processing", h.quoteProcessingFee)
	}
}

// quotePlatformFee godoc
// @Summary Quote the platform fee on an investment amount
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   request body dto.PlatformFeeRequest true "Amount and investment type"
// @Success 200 {object} dto.FeeResponse
// @Router /fees/platform [post]
func (h *feeHandler) quotePlatformFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PlatformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for QuotePlatformFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	fee, err := h.feeService.QuotePlatformFee(c.Request.Context(), req.Amount, req.Type)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error quoting platform fee", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to quote platform fee", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote platform fee"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.FeeResponse{Fee: fee})
}

// quoteCarryFee godoc
// @Summary Quote carried interest on a position's profit
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   request body dto.CarryFeeRequest true "Initial investment and current value"
// @Success 200 {object} dto.FeeResponse
// @Router /fees/carry [post]
func (h *feeHandler) quoteCarryFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CarryFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for QuoteCarryFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	fee, err := h.feeService.QuoteCarryFee(c.Request.Context(), req.InitialInvestment, req.CurrentValue)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error quoting carry fee", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to quote carry fee", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote carry fee"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.FeeResponse{Fee: fee})
}

// quoteProcessingFee godoc
// @Summary Quote the payment processing fee on an amount
// @Tags fees
// @Accept  json
// @Produce  json
// @Param   request body dto.ProcessingFeeRequest true "Amount"
// @Success 200 {object} dto.FeeResponse
// @Router /fees/processing [post]
func (h *feeHandler) quoteProcessingFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ProcessingFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for QuoteProcessingFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	fee, err := h.feeService.QuoteProcessingFee(c.Request.Context(), req.Amount)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Warn("Validation error quoting processing fee", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to quote processing fee", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote processing fee"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.FeeResponse{Fee: fee})
}

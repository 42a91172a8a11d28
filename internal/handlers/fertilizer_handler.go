package handlers

import (
	"errors"
	"net/http"

	"fertilizer-service/internal/models"
	"fertilizer-service/internal/services"
	"fertilizer-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FertilizerHandler struct {
	analysisService services.IAnalysisService
	logger          *zap.Logger
}

func NewFertilizerHandler(analysisService services.IAnalysisService, logger *zap.Logger) *FertilizerHandler {
	return &FertilizerHandler{
		analysisService: analysisService,
		logger:          logger,
	}
}

func (h *FertilizerHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/predict", h.Predict)
	api.POST("/soil-health", h.SoilHealth)
	api.GET("/analyses/:id", h.GetAnalysis)
}

func (h *FertilizerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FertilizerHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.analysisService.Analyze(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("prediction failed", zap.String("op", "FertilizerHandler.Predict"), zap.Error(err))
		utils.RespondError(c, http.StatusBadGateway, "PREDICTION_FAILED", "Failed to get fertilizer predictions")
		return
	}

	utils.RespondOK(c, resp)
}

func (h *FertilizerHandler) SoilHealth(c *gin.Context) {
	var req models.SoilReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	utils.RespondOK(c, h.analysisService.EvaluateSoil(req))
}

func (h *FertilizerHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_ID", "Analysis id must be a UUID")
		return
	}

	record, err := h.analysisService.GetAnalysis(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, "NOT_FOUND", "Analysis not found")
		return
	case errors.Is(err, services.ErrHistoryDisabled):
		utils.RespondError(c, http.StatusServiceUnavailable, "HISTORY_DISABLED", "Analysis history is not enabled")
		return
	case err != nil:
		h.logger.Error("failed to load analysis", zap.String("op", "FertilizerHandler.GetAnalysis"), zap.Error(err))
		utils.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load analysis")
		return
	}

	utils.RespondOK(c, record)
}

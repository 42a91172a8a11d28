package handlers

import (
	"fmt"
	"net/http"

	"fertilizer-service/internal/models"
	"fertilizer-service/internal/services"
	"fertilizer-service/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService services.IReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService services.IReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

func (h *ReportHandler) RegisterRoutes(router *gin.Engine) {
	reports := router.Group("/api/download-report")
	reports.POST("/pdf", h.download(models.ReportFormatPDF))
	reports.POST("/excel", h.download(models.ReportFormatExcel))
}

func (h *ReportHandler) download(format models.ReportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
			return
		}

		doc, err := h.reportService.Generate(c.Request.Context(), format, req)
		if err != nil {
			h.logger.Error("report generation failed",
				zap.String("op", "ReportHandler.download"),
				zap.String("format", string(format)),
				zap.Error(err))
			utils.RespondError(c, http.StatusInternalServerError, "REPORT_FAILED", fmt.Sprintf("Failed to generate %s report", format))
			return
		}

		if doc.ObjectName != "" {
			c.Header("X-Report-Object", doc.ObjectName)
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
		c.Data(http.StatusOK, format.ContentType(), doc.Content)
	}
}

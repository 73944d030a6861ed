package handlers

import (
	"net/http"

	"campuslink/internal/middleware"
	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reports *services.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger.Named("report_handler")}
}

type reportRequest struct {
	Target      string `json:"target" binding:"required,max=64"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"max=4000"`
}

// Create - 신고 접수
func (h *ReportHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reason, err := models.ParseReportReason(req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.reports.FileReport(c.Request.Context(), user.ID, req.Target, reason, req.Description)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

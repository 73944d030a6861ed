package handlers

import (
	"net/http"

	"campuslink/internal/services"
	"campuslink/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	reports *services.ReportService
	logger  *zap.Logger
}

func NewAdminHandler(reports *services.ReportService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{reports: reports, logger: logger.Named("admin_handler")}
}

// ListReports 신고 목록 (?target= 로 대상 필터)
func (h *AdminHandler) ListReports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), c.Query("target"), utils.IntOr(c.Query("limit"), 100))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

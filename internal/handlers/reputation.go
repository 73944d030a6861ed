package handlers

import (
	"net/http"

	"campuslink/internal/middleware"
	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReputationHandler struct {
	eligibility *services.EligibilityService
	reputation  *services.ReputationService
	logger      *zap.Logger
}

func NewReputationHandler(
	eligibility *services.EligibilityService, reputation *services.ReputationService, logger *zap.Logger,
) *ReputationHandler {
	return &ReputationHandler{
		eligibility: eligibility,
		reputation:  reputation,
		logger:      logger.Named("reputation_handler"),
	}
}

// Eligibility - 내가 target 에게 평판을 줄 수 있는지 확인
func (h *ReputationHandler) Eligibility(c *gin.Context) {
	user := middleware.CurrentUser(c)
	target := c.Query("target")
	if target == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "target is required"})
		return
	}
	activity, err := models.ParseActivityType(c.Query("activity"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	decision, err := h.eligibility.Check(c.Request.Context(), target, user.ID, activity)
	if err != nil {
		// 원장 조회 실패 시에도 거절 결과를 함께 돌려줌
		h.logger.Warn("Eligibility check failed", zap.String("target", target), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, decision)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type grantRequest struct {
	Target   string `json:"target" binding:"required,max=64"`
	Activity string `json:"activity" binding:"required,oneof=market taxi"`
}

// Grant - 평판 지급 (일일 한도와 상대별 쿨다운 적용)
func (h *ReputationHandler) Grant(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	activity, err := models.ParseActivityType(req.Activity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	decision, err := h.reputation.Grant(c.Request.Context(), req.Target, user.ID, activity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type reviewRequest struct {
	Target   string `json:"target" binding:"required,max=64"`
	Positive *bool  `json:"positive" binding:"required"`
}

// Review - 거래 후기 (좋음 +3 제한 적용, 나쁨 -15 즉시 반영)
func (h *ReputationHandler) Review(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	decision, err := h.reputation.ReviewMarket(c.Request.Context(), req.Target, user.ID, *req.Positive)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

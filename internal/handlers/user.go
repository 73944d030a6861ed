package handlers

import (
	"net/http"

	"campuslink/internal/clock"
	"campuslink/internal/middleware"
	"campuslink/internal/services"
	"campuslink/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	reputation *services.ReputationService
	calendar   *clock.Calendar
	logger     *zap.Logger
}

func NewUserHandler(reputation *services.ReputationService, calendar *clock.Calendar, logger *zap.Logger) *UserHandler {
	return &UserHandler{reputation: reputation, calendar: calendar, logger: logger.Named("user_handler")}
}

// Me - 내 프로필과 신뢰도
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)

	score := user.EffectiveTrustScore()
	bandName, bandIcon := utils.TrustBand(score)
	unread, _ := c.Get(middleware.UnreadCountKey)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"trust_score":  score,
		"trust_band":   bandName,
		"trust_icon":   bandIcon,
		"days_since":   utils.DaysSince(user.CreatedAt, h.calendar.Now()),
		"suspended":    user.Suspension().Suspended,
		"unread_count": unread,
	})
}

// Ledger - 받은 평판 내역
func (h *UserHandler) Ledger(c *gin.Context) {
	user := middleware.CurrentUser(c)
	limit := utils.IntOr(c.Query("limit"), 50)

	entries, err := h.reputation.Ledger(c.Request.Context(), user.ID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

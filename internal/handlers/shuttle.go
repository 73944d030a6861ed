package handlers

import (
	"net/http"
	"time"

	"campuslink/internal/middleware"
	"campuslink/internal/models"
	"campuslink/internal/realtime"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ShuttleHandler struct {
	shuttle *services.ShuttleService
	hub     *realtime.Hub
	logger  *zap.Logger
}

func NewShuttleHandler(shuttle *services.ShuttleService, hub *realtime.Hub, logger *zap.Logger) *ShuttleHandler {
	return &ShuttleHandler{shuttle: shuttle, hub: hub, logger: logger.Named("shuttle_handler")}
}

// Slots - 오늘 노선/방향별 시간표와 예약 상태
func (h *ShuttleHandler) Slots(c *gin.Context) {
	user := middleware.CurrentUser(c)
	route, direction := c.Query("route"), c.Query("direction")
	if route == "" || direction == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "route and direction are required"})
		return
	}

	slots, err := h.shuttle.Slots(c.Request.Context(), route, direction, user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	remaining, err := h.shuttle.PenaltyRemaining(c.Request.Context(), user.ID, route, direction)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slots":                     slots,
		"penalty_remaining_seconds": ceilSeconds(remaining),
	})
}

// Reserve - 좌석 예약
func (h *ShuttleHandler) Reserve(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var key models.SlotKey
	if err := c.ShouldBindJSON(&key); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.shuttle.Reserve(c.Request.Context(), key, user.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reserved": key})
}

// Cancel - 예약 취소 (취소 후 일정 시간 재예약 불가)
func (h *ShuttleHandler) Cancel(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var key models.SlotKey
	if err := c.ShouldBindJSON(&key); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.shuttle.Cancel(c.Request.Context(), key, user.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	remaining, err := h.shuttle.PenaltyRemaining(c.Request.Context(), user.ID, key.Route, key.Direction)
	if err != nil {
		h.logger.Warn("Failed to read penalty after cancel", zap.String("user_id", user.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"cancelled":                 key,
		"penalty_remaining_seconds": ceilSeconds(remaining),
	})
}

// Stream - 예약한 슬롯의 실시간 좌석 수
func (h *ShuttleHandler) Stream(c *gin.Context) {
	user := middleware.CurrentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	h.hub.ServeConn(conn, user.ID)
}

// ceilSeconds rounds up so a blocked client never sees 0.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

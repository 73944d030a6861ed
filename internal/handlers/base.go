package handlers

import (
	"errors"
	"net/http"

	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgSuspended = "신고 누적으로 정지된 계정입니다. 글쓰기와 예약이 제한됩니다."

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, services.ErrPenaltyActive):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrSlotNotFound),
		errors.Is(err, services.ErrPartyNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrNotReserved):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateReport),
		errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrSlotLocked),
		errors.Is(err, services.ErrSlotNotOpen),
		errors.Is(err, services.ErrSlotDeparted),
		errors.Is(err, services.ErrPartyDeparted),
		errors.Is(err, services.ErrAlreadyPartyMember),
		errors.Is(err, services.ErrIneligible):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotPartyCreator),
		errors.Is(err, services.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, services.ErrSelfAction),
		errors.Is(err, services.ErrInvalidPoints),
		errors.Is(err, services.ErrInvalidParty),
		errors.Is(err, services.ErrNotPartyMember),
		errors.Is(err, services.ErrCreatorCannotLeave),
		errors.Is(err, models.ErrUnknownActivity),
		errors.Is(err, models.ErrUnknownReportReason):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Client errors log at warn, store failures at error.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code := statusOf(err)
	body := gin.H{"error": err.Error()}

	var penalty *services.PenaltyActiveError
	switch {
	case errors.As(err, &penalty):
		body["remaining_seconds"] = penalty.RemainingSeconds()
	case code == http.StatusForbidden && errors.Is(err, services.ErrPermissionDenied):
		body["error"] = msgSuspended
	case code == http.StatusInternalServerError:
		body["error"] = "internal error"
	}

	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.Int("status", code),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Warn("Request rejected", fields...)
	}
	c.AbortWithStatusJSON(code, body)
}

// badRequest reports a malformed request body or query.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

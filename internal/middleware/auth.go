package middleware

import (
	"net/http"
	"strings"

	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"

// UserHeader carries the caller id set by the upstream auth layer.
const UserHeader = "X-User-ID"

const maxUserIDLength = 64

// AuthRequired rejects requests without a loaded user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "로그인이 필요합니다"})
			return
		}
		c.Next()
	}
}

// AdminRequired rejects callers without the admin role. It must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c).Role != services.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "관리자 권한이 필요합니다"})
			return
		}
		c.Next()
	}
}

// LoadUser provisions the caller's row on first sight and puts it on the
// context together with the unread notification count.
func LoadUser(users *services.UserService, notifications *services.NotificationService, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("auth_middleware")
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserHeader))
		if userID == "" || len(userID) > maxUserIDLength {
			c.Next()
			return
		}

		user, err := users.Ensure(c.Request.Context(), userID)
		if err != nil {
			logger.Error("Failed to load user", zap.String("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(CheckUserKey, user)

		count, err := notifications.UnreadCount(c.Request.Context(), user.ID)
		if err != nil {
			logger.Warn("Failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		}
		c.Set(UnreadCountKey, count)
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadUser. It panics if AuthRequired
// did not run first.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(CheckUserKey).(*models.User)
}

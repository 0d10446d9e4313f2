package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UserIDHeader is set by the API gateway after it validates the caller's JWT.
// Services behind the gateway trust it; they never see credentials themselves.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// RequireUserID rejects requests that lack a valid gateway-injected user id.
func RequireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid " + UserIDHeader + " header"})
			return
		}

		c.Set(userIDKey, id)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user id placed by RequireUserID.
func GetUserID(c *gin.Context) int64 {
	if v, exists := c.Get(userIDKey); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

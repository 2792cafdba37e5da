package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SessionIDKey is the gin context key for the cart session id
const SessionIDKey = "session_id"

// SessionHeader is the request header carrying the cart session id
const SessionHeader = "X-Session-ID"

// RequireSession extracts the session id from the X-Session-ID header and
// aborts with 400 when it is missing. Cart routes are meaningless without
// a session to bind the ledger to.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "Missing "+SessionHeader+" header"))
			return
		}
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id set by RequireSession
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHeader carries the caller's user id. It is trusted as-is.
const UserHeader = "X-Sharer-User-Id"

// UserRequired is a Gin middleware that reads the caller id from UserHeader.
// Requests without a well-formed id are rejected with 400.
func UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing " + UserHeader + " header",
			})
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid " + UserHeader + " header",
			})
			return
		}

		// Store the canonical form for later handlers.
		c.Set(userIDKey, id.String())

		c.Next()
	}
}

package auth

import "github.com/gin-gonic/gin"

const userIDKey = "userID"

// GetUserID returns the caller's user ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RateKey identifies the caller for rate limiting: the asserted user id when
// present, otherwise the client IP.
func RateKey(c *gin.Context) string {
	if id := c.GetHeader(UserHeader); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

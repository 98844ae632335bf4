package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	headerName   = "X-API-Key"
	bearerPrefix = "Bearer "
)

// providedKey reads the key from X-API-Key, falling back to a bearer token.
func providedKey(c *gin.Context) string {
	if key := c.GetHeader(headerName); key != "" {
		return key
	}
	if authz := c.GetHeader("Authorization"); strings.HasPrefix(authz, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authz, bearerPrefix))
	}
	return ""
}

// APIKeyMiddleware validates the API key from the X-API-Key header or an
// Authorization bearer token. If apiKey is empty, authentication is disabled.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := providedKey(c)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}

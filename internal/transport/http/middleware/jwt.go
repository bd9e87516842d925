package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"studyassist/internal/pkg/jwtutil"
	"studyassist/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// DemoIdentity resolves the identity injected when auth is disabled.
type DemoIdentity func() (userID, username string, err error)

// Auth validates the bearer token. With auth disabled the demo identity
// is injected instead, so every endpoint keeps working without accounts.
func Auth(secret string, enabled bool, demo DemoIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			userID, username, err := demo()
			if err != nil {
				response.Error(c, 500, response.CodeInternalServer, "demo identity unavailable")
				c.Abort()
				return
			}
			c.Set(ContextUserIDKey, userID)
			c.Set(ContextUsernameKey, username)
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// UserID pulls the authenticated user ID set by Auth.
func UserID(c *gin.Context) string {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/codeman/internal/pkg/errcode"
	"github.com/xxxsen/codeman/internal/pkg/jwt"
	"github.com/xxxsen/codeman/internal/pkg/response"
)

const (
	ContextUserIDKey = "user_id"
	ContextClaimsKey = "claims"
)

// JWTAuth accepts identity tokens issued after an oauth login. The subject is stored
// under ContextUserIDKey.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "Invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil || claims.Subject == "" {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.Subject)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

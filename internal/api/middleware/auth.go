package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"varaamo/backend/pkg/jwt"
	"varaamo/backend/pkg/redis"
	"varaamo/backend/pkg/response"
)

// JWTAuth authentication middleware.
// Extracts and validates the access token from Authorization: Bearer <token>,
// rejects blacklisted tokens and injects the user id into the context.
// Role checks happen in the service layer, against the database, so a token
// never carries stale role assignments.
// A nil rdb degrades gracefully: the blacklist check is skipped.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token is invalid or expired")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "wrong token type")
			c.Abort()
			return
		}

		if rdb != nil {
			blacklisted, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && blacklisted {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("token_claims", claims)

		c.Next()
	}
}

package handler

import (
	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

// MustGetUserID safely extracts user_id from the gin context.
// Writes a 401 and returns false when the JWT middleware did not run.
// Callers should return immediately on ok=false.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// mustResolveRoles turns the authenticated user into a RoleContext.
// Role assignments come from the database on every request, so revocations
// bite without waiting for token expiry. Writes the error response itself;
// callers should return immediately on ok=false.
func mustResolveRoles(c *gin.Context, perm service.PermissionService) (*permission.RoleContext, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, false
	}

	rc, err := perm.ResolveContext(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return nil, false
	}
	return rc, true
}

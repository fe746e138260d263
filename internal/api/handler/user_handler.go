package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

// UserHandler user and role administration HTTP handlers
type UserHandler struct {
	userSvc service.UserService
	permSvc service.PermissionService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userSvc service.UserService, permSvc service.PermissionService) *UserHandler {
	return &UserHandler{userSvc: userSvc, permSvc: permSvc}
}

// GetCurrentUser own profile with role assignments
// GET /api/v1/users/me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.userSvc.Get(c.Request.Context(), rc, rc.UserID)
	if err != nil {
		h.handleUserError(c, err, "view this user")
		return
	}
	response.OK(c, result)
}

// GetUser user lookup
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.userSvc.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleUserError(c, err, "view this user")
		return
	}
	response.OK(c, result)
}

// ListUsers paginated user listing
// GET /api/v1/users?page=1&page_size=20
func (h *UserHandler) ListUsers(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := h.userSvc.List(c.Request.Context(), rc, (page-1)*pageSize, pageSize)
	if err != nil {
		h.handleUserError(c, err, "list users")
		return
	}
	response.OKPage(c, result.Users, result.Total, page, pageSize)
}

// UpdateUser profile update, self or superuser
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.userSvc.Update(c.Request.Context(), rc, c.Param("id"), &req)
	if err != nil {
		h.handleUserError(c, err, "update this user")
		return
	}
	response.OK(c, result)
}

// AssignGeneralRole grant a system-wide role
// POST /api/v1/users/:id/general-roles
func (h *UserHandler) AssignGeneralRole(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.AssignGeneralRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.userSvc.AssignGeneralRole(c.Request.Context(), rc, c.Param("id"), &req); err != nil {
		h.handleUserError(c, err, "manage roles")
		return
	}
	response.Created(c, nil)
}

// RevokeGeneralRole revoke a system-wide role
// DELETE /api/v1/users/:id/general-roles/:role
func (h *UserHandler) RevokeGeneralRole(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.userSvc.RevokeGeneralRole(c.Request.Context(), rc, c.Param("id"), c.Param("role")); err != nil {
		h.handleUserError(c, err, "manage roles")
		return
	}
	response.OK(c, nil)
}

// AssignUnitRole grant a unit-scoped role
// POST /api/v1/users/:id/unit-roles
func (h *UserHandler) AssignUnitRole(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.AssignUnitRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.userSvc.AssignUnitRole(c.Request.Context(), rc, c.Param("id"), &req); err != nil {
		h.handleUserError(c, err, "manage roles")
		return
	}
	response.Created(c, nil)
}

// RevokeUnitRole revoke one unit-scoped role assignment
// DELETE /api/v1/unit-roles/:id
func (h *UserHandler) RevokeUnitRole(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.userSvc.RevokeUnitRole(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleUserError(c, err, "manage roles")
		return
	}
	response.OK(c, nil)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, verb)
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "user not found")
	case errors.Is(err, service.ErrUnitRoleNotFound):
		response.NotFound(c, 11006, "unit role assignment not found")
	case errors.Is(err, service.ErrUnknownRole):
		response.BadRequest(c, 11007, "unknown role code")
	case errors.Is(err, service.ErrRoleAlreadyHeld):
		response.Conflict(c, 11008, "user already holds this role")
	case errors.Is(err, service.ErrEmptyRoleScope):
		response.BadRequest(c, 11009, "a unit role needs at least one unit or unit group")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 11003, "email is already registered")
	default:
		response.InternalError(c)
	}
}

package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

// ApplicationHandler seasonal application HTTP handlers
type ApplicationHandler struct {
	appSvc  service.ApplicationService
	permSvc service.PermissionService
}

// NewApplicationHandler creates an ApplicationHandler.
func NewApplicationHandler(appSvc service.ApplicationService, permSvc service.PermissionService) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc, permSvc: permSvc}
}

// ── application lifecycle ──

// CreateApplication starts a draft in an open round
// POST /api/v1/applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.appSvc.Create(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleApplicationError(c, err, "create an application")
		return
	}
	response.Created(c, result)
}

// GetApplication
// GET /api/v1/applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.appSvc.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleApplicationError(c, err, "view this application")
		return
	}
	response.OK(c, result)
}

// ListOwnApplications the caller's applications across rounds
// GET /api/v1/applications/me
func (h *ApplicationHandler) ListOwnApplications(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.appSvc.ListOwn(c.Request.Context(), rc)
	if err != nil {
		h.handleApplicationError(c, err, "list applications")
		return
	}
	response.OK(c, result)
}

// ListByRound staff listing of a round's applications
// GET /api/v1/application-rounds/:id/applications?page=1&page_size=20
func (h *ApplicationHandler) ListByRound(c *gin.Context) {
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

	result, err := h.appSvc.ListByRound(c.Request.Context(), rc, c.Param("id"), (page-1)*pageSize, pageSize)
	if err != nil {
		h.handleApplicationError(c, err, "list applications")
		return
	}
	response.OKPage(c, result.Applications, result.Total, page, pageSize)
}

// SendApplication submits a draft for handling
// POST /api/v1/applications/:id/send
func (h *ApplicationHandler) SendApplication(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.appSvc.Send(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleApplicationError(c, err, "send this application")
		return
	}
	response.OK(c, result)
}

// CancelApplication
// POST /api/v1/applications/:id/cancel
func (h *ApplicationHandler) CancelApplication(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.appSvc.Cancel(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleApplicationError(c, err, "cancel this application")
		return
	}
	response.OK(c, nil)
}

// ── sections ──

// AddSection
// POST /api/v1/applications/:id/sections
func (h *ApplicationHandler) AddSection(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.appSvc.AddSection(c.Request.Context(), rc, c.Param("id"), &req)
	if err != nil {
		h.handleApplicationError(c, err, "modify this application")
		return
	}
	response.Created(c, result)
}

// UpdateSection partial section update
// PUT /api/v1/application-sections/:id
func (h *ApplicationHandler) UpdateSection(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.appSvc.UpdateSection(c.Request.Context(), rc, c.Param("id"), &req)
	if err != nil {
		h.handleApplicationError(c, err, "modify this application")
		return
	}
	response.OK(c, result)
}

// DeleteSection
// DELETE /api/v1/application-sections/:id
func (h *ApplicationHandler) DeleteSection(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.appSvc.DeleteSection(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleApplicationError(c, err, "modify this application")
		return
	}
	response.OK(c, nil)
}

func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, verb)
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 13001, "application not found")
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 13002, "application section not found")
	case errors.Is(err, service.ErrRoundNotFound):
		response.NotFound(c, 14001, "application round not found")
	case errors.Is(err, service.ErrRoundNotOpen):
		response.Conflict(c, 13003, "the application period is not open")
	case errors.Is(err, service.ErrApplicationSent):
		response.Conflict(c, 13004, "application has already been sent")
	case errors.Is(err, service.ErrApplicationEmpty):
		response.BadRequest(c, 13005, "application needs at least one section before sending")
	case errors.Is(err, service.ErrSectionAllocated):
		response.Conflict(c, 13006, "section already has allocations")
	case errors.Is(err, service.ErrBadWeekday):
		response.BadRequest(c, 13007, "unknown day of the week")
	case errors.Is(err, service.ErrBadTimeFormat):
		response.BadRequest(c, 13008, "invalid time format")
	case errors.Is(err, service.ErrDurationInverted):
		response.BadRequest(c, 13009, "min duration cannot exceed max duration")
	case errors.Is(err, service.ErrReservationUnitNotFound):
		response.NotFound(c, 12004, "reservation unit not found")
	default:
		response.InternalError(c)
	}
}

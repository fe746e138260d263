package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

// UnitHandler unit, space, resource and reservation unit HTTP handlers
type UnitHandler struct {
	unitSvc service.UnitService
	permSvc service.PermissionService
}

// NewUnitHandler creates a UnitHandler.
func NewUnitHandler(unitSvc service.UnitService, permSvc service.PermissionService) *UnitHandler {
	return &UnitHandler{unitSvc: unitSvc, permSvc: permSvc}
}

// ── units and unit groups ──

// CreateUnit
// POST /api/v1/units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.unitSvc.CreateUnit(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleUnitError(c, err, "administer units")
		return
	}
	response.Created(c, result)
}

// ListUnits public unit listing
// GET /api/v1/units
func (h *UnitHandler) ListUnits(c *gin.Context) {
	result, err := h.unitSvc.ListUnits(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// CreateUnitGroup
// POST /api/v1/unit-groups
func (h *UnitHandler) CreateUnitGroup(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateUnitGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.unitSvc.CreateUnitGroup(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleUnitError(c, err, "administer units")
		return
	}
	response.Created(c, result)
}

// ListUnitGroups
// GET /api/v1/unit-groups
func (h *UnitHandler) ListUnitGroups(c *gin.Context) {
	result, err := h.unitSvc.ListUnitGroups(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ── spaces ──

// CreateSpace
// POST /api/v1/spaces
func (h *UnitHandler) CreateSpace(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.unitSvc.CreateSpace(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleUnitError(c, err, "administer spaces")
		return
	}
	response.Created(c, result)
}

// UpdateSpaceParent moves a space in the tree
// PUT /api/v1/spaces/:id/parent
func (h *UnitHandler) UpdateSpaceParent(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.UpdateSpaceParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.unitSvc.UpdateSpaceParent(c.Request.Context(), rc, c.Param("id"), req.ParentSpaceID); err != nil {
		h.handleUnitError(c, err, "administer spaces")
		return
	}
	response.OK(c, nil)
}

// DeleteSpace
// DELETE /api/v1/spaces/:id
func (h *UnitHandler) DeleteSpace(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.unitSvc.DeleteSpace(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleUnitError(c, err, "administer spaces")
		return
	}
	response.OK(c, nil)
}

// ── resources ──

// CreateResource
// POST /api/v1/resources
func (h *UnitHandler) CreateResource(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.unitSvc.CreateResource(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleUnitError(c, err, "administer resources")
		return
	}
	response.Created(c, result)
}

// DeleteResource
// DELETE /api/v1/resources/:id
func (h *UnitHandler) DeleteResource(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.unitSvc.DeleteResource(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleUnitError(c, err, "administer resources")
		return
	}
	response.OK(c, nil)
}

// ── reservation units ──

// CreateReservationUnit
// POST /api/v1/reservation-units
func (h *UnitHandler) CreateReservationUnit(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateReservationUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.unitSvc.CreateReservationUnit(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleUnitError(c, err, "administer reservation units")
		return
	}
	response.Created(c, result)
}

// ListReservationUnits public listing, archived units excluded
// GET /api/v1/reservation-units
func (h *UnitHandler) ListReservationUnits(c *gin.Context) {
	result, err := h.unitSvc.ListReservationUnits(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ArchiveReservationUnit soft-deletes a reservation unit
// DELETE /api/v1/reservation-units/:id
func (h *UnitHandler) ArchiveReservationUnit(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.unitSvc.ArchiveReservationUnit(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleUnitError(c, err, "administer reservation units")
		return
	}
	response.OK(c, nil)
}

func (h *UnitHandler) handleUnitError(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, verb)
	case errors.Is(err, service.ErrUnitNotFound):
		response.NotFound(c, 12001, "unit not found")
	case errors.Is(err, service.ErrSpaceNotFound):
		response.NotFound(c, 12002, "space not found")
	case errors.Is(err, service.ErrResourceNotFound):
		response.NotFound(c, 12003, "resource not found")
	case errors.Is(err, service.ErrReservationUnitNotFound):
		response.NotFound(c, 12004, "reservation unit not found")
	case errors.Is(err, service.ErrSpaceCycle):
		response.BadRequest(c, 12005, "space cannot be moved under its own descendant")
	default:
		response.InternalError(c)
	}
}

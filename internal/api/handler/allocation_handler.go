package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

// AllocationHandler allocation phase HTTP handlers
type AllocationHandler struct {
	allocSvc service.AllocationService
	permSvc  service.PermissionService
}

// NewAllocationHandler creates an AllocationHandler.
func NewAllocationHandler(allocSvc service.AllocationService, permSvc service.PermissionService) *AllocationHandler {
	return &AllocationHandler{allocSvc: allocSvc, permSvc: permSvc}
}

// CreateSlot allocates one weekly slot to a section's option
// POST /api/v1/allocations
func (h *AllocationHandler) CreateSlot(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.allocSvc.CreateSlot(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}
	response.Created(c, result)
}

// DeleteSlot
// DELETE /api/v1/allocations/:id
func (h *AllocationHandler) DeleteSlot(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := h.allocSvc.DeleteSlot(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleAllocationError(c, err)
		return
	}
	response.OK(c, nil)
}

// LockOption takes an option out of allocation
// POST /api/v1/reservation-unit-options/:id/lock
func (h *AllocationHandler) LockOption(c *gin.Context) {
	h.flagOption(c, h.allocSvc.LockOption)
}

// UnlockOption
// POST /api/v1/reservation-unit-options/:id/unlock
func (h *AllocationHandler) UnlockOption(c *gin.Context) {
	h.flagOption(c, h.allocSvc.UnlockOption)
}

// RejectOption
// POST /api/v1/reservation-unit-options/:id/reject
func (h *AllocationHandler) RejectOption(c *gin.Context) {
	h.flagOption(c, h.allocSvc.RejectOption)
}

// RestoreOption
// POST /api/v1/reservation-unit-options/:id/restore
func (h *AllocationHandler) RestoreOption(c *gin.Context) {
	h.flagOption(c, h.allocSvc.RestoreOption)
}

// flagOption shared driver for the four option flag toggles.
func (h *AllocationHandler) flagOption(c *gin.Context, op func(ctx context.Context, rc *permission.RoleContext, optionID string) error) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), rc, c.Param("id")); err != nil {
		h.handleAllocationError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *AllocationHandler) handleAllocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, "manage allocations")
	case errors.Is(err, service.ErrOptionNotFound):
		response.NotFound(c, 15001, "reservation unit option not found")
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 15002, "allocated time slot not found")
	case errors.Is(err, service.ErrOptionLocked):
		response.Conflict(c, 15003, "option is locked")
	case errors.Is(err, service.ErrOptionRejected):
		response.Conflict(c, 15004, "option is rejected")
	case errors.Is(err, service.ErrOptionHasSlots):
		response.Conflict(c, 15005, "option with allocations cannot be rejected")
	case errors.Is(err, service.ErrSlotTimeInverted):
		response.BadRequest(c, 15006, "slot must end after it begins")
	case errors.Is(err, service.ErrSlotOverlap):
		response.Conflict(c, 15007, "slot overlaps an existing allocation for this section")
	case errors.Is(err, service.ErrSectionFull):
		response.Conflict(c, 15008, "section already has its applied number of allocations")
	case errors.Is(err, service.ErrRoundNotAllocating):
		response.Conflict(c, 15009, "round is not in allocation")
	case errors.Is(err, service.ErrBadWeekday):
		response.BadRequest(c, 13007, "unknown day of the week")
	case errors.Is(err, service.ErrBadTimeFormat):
		response.BadRequest(c, 13008, "invalid time format")
	default:
		response.InternalError(c)
	}
}

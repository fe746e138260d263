package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/service"
	pkgerrors "varaamo/backend/pkg/errors"
	"varaamo/backend/pkg/response"
)

// ApplicationRoundHandler application round lifecycle HTTP handlers
type ApplicationRoundHandler struct {
	roundSvc service.ApplicationRoundService
	permSvc  service.PermissionService
}

// NewApplicationRoundHandler creates an ApplicationRoundHandler.
func NewApplicationRoundHandler(roundSvc service.ApplicationRoundService, permSvc service.PermissionService) *ApplicationRoundHandler {
	return &ApplicationRoundHandler{roundSvc: roundSvc, permSvc: permSvc}
}

// CreateRound
// POST /api/v1/application-rounds
func (h *ApplicationRoundHandler) CreateRound(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateApplicationRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.roundSvc.Create(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleRoundError(c, err, "administer application rounds")
		return
	}
	response.Created(c, result)
}

// GetRound round details with derived status, public
// GET /api/v1/application-rounds/:id
func (h *ApplicationRoundHandler) GetRound(c *gin.Context) {
	result, err := h.roundSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRoundError(c, err, "view application rounds")
		return
	}
	response.OK(c, result)
}

// ListRounds public round listing
// GET /api/v1/application-rounds
func (h *ApplicationRoundHandler) ListRounds(c *gin.Context) {
	result, err := h.roundSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// MarkHandled closes the allocation phase
// POST /api/v1/application-rounds/:id/mark-handled
func (h *ApplicationRoundHandler) MarkHandled(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.roundSvc.MarkHandled(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleRoundError(c, err, "administer application rounds")
		return
	}
	response.OK(c, result)
}

// MarkResultsSent records that applicants have been notified
// POST /api/v1/application-rounds/:id/mark-results-sent
func (h *ApplicationRoundHandler) MarkResultsSent(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.roundSvc.MarkResultsSent(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleRoundError(c, err, "administer application rounds")
		return
	}
	response.OK(c, result)
}

// ResetAllocation rolls the round back to a clean allocation slate.
// Access codes are revoked against the door system before anything is
// deleted locally, so a failure aborts with the database untouched.
// POST /api/v1/application-rounds/:id/reset-allocation
func (h *ApplicationRoundHandler) ResetAllocation(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.roundSvc.ResetAllocation(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleRoundError(c, err, "administer application rounds")
		return
	}
	response.OK(c, result)
}

func (h *ApplicationRoundHandler) handleRoundError(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, verb)
	case errors.Is(err, service.ErrRoundNotFound):
		response.NotFound(c, 14001, "application round not found")
	case errors.Is(err, service.ErrRoundNotInPast):
		response.Conflict(c, 14002, "application period must be over first")
	case errors.Is(err, service.ErrRoundNotHandled):
		response.Conflict(c, 14003, "round must be handled first")
	case errors.Is(err, service.ErrRoundAlreadyHandled):
		response.Conflict(c, 14004, "round is already handled")
	case errors.Is(err, service.ErrRoundNotResettable):
		response.Conflict(c, 14005, "round allocation cannot be reset yet")
	case errors.Is(err, service.ErrAccessCodeRevoke):
		response.Error(c, http.StatusBadGateway, 14006, "access code revocation failed, reset aborted")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14007, "round was modified concurrently, retry")
	case errors.Is(err, service.ErrBadTimeFormat):
		response.BadRequest(c, 13008, "invalid time format")
	case errors.Is(err, service.ErrPeriodInverted):
		response.BadRequest(c, 14008, "application period must end after it begins")
	case errors.Is(err, service.ErrReservationUnitNotFound):
		response.NotFound(c, 12004, "reservation unit not found")
	default:
		response.InternalError(c)
	}
}

package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

// ReservationHandler reservation HTTP handlers
type ReservationHandler struct {
	resvSvc service.ReservationService
	permSvc service.PermissionService
}

// NewReservationHandler creates a ReservationHandler.
func NewReservationHandler(resvSvc service.ReservationService, permSvc service.PermissionService) *ReservationHandler {
	return &ReservationHandler{resvSvc: resvSvc, permSvc: permSvc}
}

// CreateStaffReservation books a slot on behalf of the venue
// POST /api/v1/reservations
func (h *ReservationHandler) CreateStaffReservation(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.resvSvc.CreateStaffReservation(c.Request.Context(), rc, &req)
	if err != nil {
		h.handleReservationError(c, err, "create staff reservations")
		return
	}
	response.Created(c, result)
}

// GetReservation
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	result, err := h.resvSvc.Get(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err, "view this reservation")
		return
	}
	response.OK(c, result)
}

// SetReservationState staff state transition
// PUT /api/v1/reservations/:id/state
func (h *ReservationHandler) SetReservationState(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var req dto.SetReservationStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.resvSvc.SetState(c.Request.Context(), rc, c.Param("id"), model.ReservationState(req.State)); err != nil {
		h.handleReservationError(c, err, "manage reservations")
		return
	}
	response.OK(c, nil)
}

// ListAffecting reservations that block a reservation unit inside a window,
// including those on topologically related units
// GET /api/v1/reservation-units/:id/affecting-reservations?from=...&to=...
func (h *ReservationHandler) ListAffecting(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	var q dto.AffectingReservationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "from and to are required")
		return
	}

	from, err := time.Parse(time.RFC3339, q.From)
	if err != nil {
		response.BadRequest(c, 13008, "invalid time format")
		return
	}
	to, err := time.Parse(time.RFC3339, q.To)
	if err != nil {
		response.BadRequest(c, 13008, "invalid time format")
		return
	}

	result, err := h.resvSvc.ListAffecting(c.Request.Context(), rc, c.Param("id"), from, to)
	if err != nil {
		h.handleReservationError(c, err, "view staff reservation data")
		return
	}
	response.OK(c, result)
}

// GenerateSeasonalSeries materializes every allocated slot of a handled round
// into weekly reservation series
// POST /api/v1/application-rounds/:id/generate-series
func (h *ReservationHandler) GenerateSeasonalSeries(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	created, err := h.resvSvc.GenerateSeasonalSeries(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err, "administer application rounds")
		return
	}
	response.OK(c, gin.H{"created_reservations": created})
}

func (h *ReservationHandler) handleReservationError(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, verb)
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 16001, "reservation not found")
	case errors.Is(err, service.ErrReservationUnitNotFound):
		response.NotFound(c, 12004, "reservation unit not found")
	case errors.Is(err, service.ErrRoundNotFound):
		response.NotFound(c, 14001, "application round not found")
	case errors.Is(err, service.ErrReservationConflict):
		response.Conflict(c, 16002, "the time is already reserved")
	case errors.Is(err, service.ErrReservationInverted):
		response.BadRequest(c, 16003, "reservation must end after it begins")
	case errors.Is(err, service.ErrRoundNotHandled):
		response.Conflict(c, 14003, "round must be handled first")
	case errors.Is(err, service.ErrBadTimeFormat):
		response.BadRequest(c, 13008, "invalid time format")
	default:
		response.InternalError(c)
	}
}

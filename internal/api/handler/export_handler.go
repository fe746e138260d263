package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler export HTTP handlers
type ExportHandler struct {
	exportSvc service.ExportService
	permSvc   service.PermissionService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService, permSvc service.PermissionService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, permSvc: permSvc}
}

// ExportAllocations allocation grid of one round as an Excel workbook
// GET /api/v1/export/application-rounds/:id/allocations
func (h *ExportHandler) ExportAllocations(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAllocations(c.Request.Context(), rc, c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportReservationsICS a user's reservations as an iCalendar feed
// GET /api/v1/export/reservations/calendar?user_id=...&from=...&to=...
// user_id defaults to the caller; from/to default to a three month window.
func (h *ExportHandler) ExportReservationsICS(c *gin.Context) {
	rc, ok := mustResolveRoles(c, h.permSvc)
	if !ok {
		return
	}

	userID := c.DefaultQuery("user_id", rc.UserID)

	from := time.Now()
	to := from.AddDate(0, 3, 0)
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, 13008, "invalid time format")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, 13008, "invalid time format")
			return
		}
		to = parsed
	}

	buf, filename, err := h.exportSvc.ExportReservationsICS(c.Request.Context(), rc, userID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, icsContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.NoPermission(c, "export this data")
	case errors.Is(err, service.ErrRoundNotFound):
		response.NotFound(c, 14001, "application round not found")
	case errors.Is(err, service.ErrExportNoAllocations):
		response.NotFound(c, 17001, "round has no allocations to export")
	case errors.Is(err, service.ErrExportNoReservations):
		response.NotFound(c, 17002, "no reservations in the requested window")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

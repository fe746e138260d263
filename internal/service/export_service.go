package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"varaamo/backend/internal/model"
	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/repository"
)

var (
	ErrExportNoAllocations  = errors.New("round has no allocations to export")
	ErrExportNoReservations = errors.New("no reservations to export")
	ErrExportGenerateFail   = errors.New("failed to generate export file")
)

// ExportService export business interface.
//
// Two export surfaces:
//   - the allocation result of one round as an Excel grid for handlers
//   - a user's reservations as an iCalendar feed
//
// Both return a bytes.Buffer; the handler layer sets HTTP headers and
// writes it out.
type ExportService interface {
	ExportAllocations(ctx context.Context, rc *permission.RoleContext, roundID string) (*bytes.Buffer, string, error)
	ExportReservationsICS(ctx context.Context, rc *permission.RoleContext, userID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService instance.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════════════
// ExportAllocations — allocation grid as Excel
// ════════════════════════════════════════════════════════════════════
//
// One sheet, one row per allocated slot, ordered by reservation unit then
// weekday then begin time.

func (s *exportService) ExportAllocations(ctx context.Context, rc *permission.RoleContext, roundID string) (*bytes.Buffer, string, error) {
	round, err := s.repo.ApplicationRound.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRoundNotFound
		}
		return nil, "", err
	}
	if !permission.CanManageApplicationRound(rc, round.UnitIDs()) {
		return nil, "", ErrPermissionDenied
	}

	slots, err := s.repo.AllocatedSlot.ListByRound(ctx, roundID)
	if err != nil {
		s.logger.Error("failed to list allocations for export", zap.Error(err))
		return nil, "", err
	}
	if len(slots) == 0 {
		return nil, "", ErrExportNoAllocations
	}

	sort.Slice(slots, func(i, j int) bool {
		ri, rj := exportRUName(&slots[i]), exportRUName(&slots[j])
		if ri != rj {
			return ri < rj
		}
		di, dj := slots[i].DayOfTheWeekNumber(), slots[j].DayOfTheWeekNumber()
		if di != dj {
			return di < dj
		}
		return slots[i].BeginTime < slots[j].BeginTime
	})

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Allocations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Reservation unit", "Day", "Begins", "Ends", "Time of week"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", ErrExportGenerateFail
		}
	}

	for row, slot := range slots {
		values := []interface{}{
			exportRUName(&slot),
			string(slot.DayOfTheWeek),
			slot.BeginTime,
			slot.EndTime,
			slot.AllocatedTimeOfWeek(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", ErrExportGenerateFail
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("failed to write excel buffer", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("allocations-%s.xlsx", round.Name)
	return buf, filename, nil
}

func exportRUName(slot *model.AllocatedTimeSlot) string {
	if slot.ReservationUnitOption != nil && slot.ReservationUnitOption.ReservationUnit != nil {
		return slot.ReservationUnitOption.ReservationUnit.Name
	}
	return ""
}

// ════════════════════════════════════════════════════════════════════
// ExportReservationsICS — a user's reservations as iCalendar
// ════════════════════════════════════════════════════════════════════

func (s *exportService) ExportReservationsICS(ctx context.Context, rc *permission.RoleContext, userID string, from, to time.Time) (*bytes.Buffer, string, error) {
	// a user exports their own calendar; staff with user viewing may export
	// anyone's
	if !permission.CanViewUser(rc, userID) {
		return nil, "", ErrPermissionDenied
	}

	reservations, err := s.repo.Reservation.ListByUser(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("failed to list reservations for export", zap.Error(err))
		return nil, "", err
	}
	if len(reservations) == 0 {
		return nil, "", ErrExportNoReservations
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//varaamo//reservations//EN")

	for i := range reservations {
		r := &reservations[i]
		if !r.State.IsBlocking() {
			continue
		}

		event := cal.AddEvent(r.ReservationID + "@varaamo")
		event.SetCreatedTime(r.CreatedAt)
		event.SetStartAt(r.BeginsAt)
		event.SetEndAt(r.EndsAt)
		if r.ReservationUnit != nil {
			event.SetSummary(r.ReservationUnit.Name)
		} else {
			event.SetSummary("Reservation")
		}
		event.SetStatus(ics.ObjectStatusConfirmed)
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		s.logger.Error("failed to serialize calendar", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("reservations-%s.ics", from.Format("2006-01-02"))
	return &buf, filename, nil
}

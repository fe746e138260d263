package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/repository"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationConflict = errors.New("the time is already reserved")
	ErrReservationInverted = errors.New("reservation must end after it begins")
)

// ReservationService reservation business interface
type ReservationService interface {
	CreateStaffReservation(ctx context.Context, rc *permission.RoleContext, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
	Get(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ReservationResponse, error)
	ListAffecting(ctx context.Context, rc *permission.RoleContext, reservationUnitID string, from, to time.Time) ([]dto.ReservationResponse, error)
	SetState(ctx context.Context, rc *permission.RoleContext, id string, state model.ReservationState) error
	GenerateSeasonalSeries(ctx context.Context, rc *permission.RoleContext, roundID string) (int, error)
}

type reservationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReservationService creates a ReservationService instance.
func NewReservationService(repo *repository.Repository, logger *zap.Logger) ReservationService {
	return &reservationService{repo: repo, logger: logger}
}

func (s *reservationService) CreateStaffReservation(ctx context.Context, rc *permission.RoleContext, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	ru, err := s.repo.ReservationUnit.GetByID(ctx, req.ReservationUnitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationUnitNotFound
		}
		return nil, err
	}
	if !permission.CanCreateStaffReservation(rc, ru.UnitID) {
		return nil, ErrPermissionDenied
	}

	begins, err := time.Parse(time.RFC3339, req.BeginsAt)
	if err != nil {
		return nil, ErrBadTimeFormat
	}
	ends, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return nil, ErrBadTimeFormat
	}
	if !ends.After(begins) {
		return nil, ErrReservationInverted
	}

	// conflict check spans the whole affecting set, so a booking in a child
	// space blocks the parent hall and vice versa
	blocking, err := s.repo.Reservation.ListAffecting(ctx, req.ReservationUnitID, begins, ends)
	if err != nil {
		return nil, err
	}
	if len(blocking) > 0 {
		return nil, ErrReservationConflict
	}

	accessType := model.AccessTypeUnrestricted
	if req.AccessType != "" {
		accessType = model.AccessType(req.AccessType)
	}

	reservation := &model.Reservation{
		ReservationUnitID: req.ReservationUnitID,
		UserID:            rc.UserID,
		State:             model.ReservationStateConfirmed,
		AccessType:        accessType,
		BeginsAt:          begins,
		EndsAt:            ends,
	}
	if err := s.repo.Reservation.Create(ctx, reservation); err != nil {
		s.logger.Error("failed to create reservation", zap.Error(err))
		return nil, err
	}

	resp := reservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) Get(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	unitIDs := reservationUnitIDs(reservation)
	if !permission.CanViewReservation(rc, reservation.UserID, unitIDs, false) {
		return nil, ErrPermissionDenied
	}

	resp := reservationToResponse(reservation)
	return &resp, nil
}

// ListAffecting lists every reservation blocking the reservation unit in
// [from, to), including reservations on related units.
func (s *reservationService) ListAffecting(ctx context.Context, rc *permission.RoleContext, reservationUnitID string, from, to time.Time) ([]dto.ReservationResponse, error) {
	ru, err := s.repo.ReservationUnit.GetByID(ctx, reservationUnitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationUnitNotFound
		}
		return nil, err
	}
	if rc.IsAnonymousOrInactive() {
		return nil, ErrPermissionDenied
	}
	if !rc.IsSuperuser &&
		!rc.HasGeneralRole(permission.RolesGranting(permission.CanViewReservations)...) &&
		!rc.HasRoleForUnits([]string{ru.UnitID}, permission.RolesGranting(permission.CanViewReservations), true) {
		return nil, ErrPermissionDenied
	}

	reservations, err := s.repo.Reservation.ListAffecting(ctx, reservationUnitID, from, to)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		resp = append(resp, reservationToResponse(&reservations[i]))
	}
	return resp, nil
}

func (s *reservationService) SetState(ctx context.Context, rc *permission.RoleContext, id string, state model.ReservationState) error {
	reservation, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}

	unitIDs := reservationUnitIDs(reservation)
	if !permission.CanManageReservation(rc, reservation.UserID, unitIDs, false) {
		return ErrPermissionDenied
	}
	return s.repo.Reservation.SetState(ctx, id, state)
}

// GenerateSeasonalSeries expands every allocated slot of a handled round
// into a reservation series with one reservation per matching week of the
// reservation period. Returns the number of reservations created.
func (s *reservationService) GenerateSeasonalSeries(ctx context.Context, rc *permission.RoleContext, roundID string) (int, error) {
	round, err := s.repo.ApplicationRound.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRoundNotFound
		}
		return 0, err
	}
	if !permission.CanManageApplicationRound(rc, round.UnitIDs()) {
		return 0, ErrPermissionDenied
	}
	if round.Status(time.Now()) != model.RoundStatusHandled {
		return 0, ErrRoundNotHandled
	}

	slots, err := s.repo.AllocatedSlot.ListByRound(ctx, roundID)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.repo.Atomic(func(tx *repository.Repository) error {
		for i := range slots {
			slot := &slots[i]
			if slot.ReservationUnitOption == nil {
				continue
			}
			opt := slot.ReservationUnitOption

			section, err := tx.Section.GetByID(ctx, opt.ApplicationSectionID)
			if err != nil {
				return err
			}
			app, err := tx.Application.GetByID(ctx, section.ApplicationID)
			if err != nil {
				return err
			}

			occurrences, err := weeklyOccurrences(slot, round.ReservationPeriodBeginDate, round.ReservationPeriodEndDate)
			if err != nil {
				return err
			}

			series := &model.ReservationSeries{
				AllocatedTimeSlotID: &slot.AllocatedTimeSlotID,
				ReservationUnitID:   opt.ReservationUnitID,
				UserID:              app.UserID,
				SeriesType:          model.SeriesTypeSeasonal,
			}
			reservations := make([]model.Reservation, 0, len(occurrences))
			for _, occ := range occurrences {
				reservations = append(reservations, model.Reservation{
					ReservationUnitID: opt.ReservationUnitID,
					UserID:            app.UserID,
					State:             model.ReservationStateConfirmed,
					AccessType:        model.AccessTypeUnrestricted,
					BeginsAt:          occ.begin,
					EndsAt:            occ.end,
				})
			}
			if err := tx.ReservationSeries.Create(ctx, series, reservations); err != nil {
				return err
			}
			created += len(reservations)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to generate seasonal series", zap.String("application_round_id", roundID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("generated seasonal reservations",
		zap.String("application_round_id", roundID),
		zap.Int("reservations", created))
	return created, nil
}

type occurrence struct {
	begin time.Time
	end   time.Time
}

// weeklyOccurrences lists the concrete [begin, end) intervals of a weekly
// slot inside the reservation period.
func weeklyOccurrences(slot *model.AllocatedTimeSlot, periodBegin, periodEnd time.Time) ([]occurrence, error) {
	beginClock, err := time.Parse("15:04", slot.BeginTime)
	if err != nil {
		return nil, fmt.Errorf("bad slot begin time %q: %w", slot.BeginTime, err)
	}
	endClock, err := time.Parse("15:04", slot.EndTime)
	if err != nil {
		return nil, fmt.Errorf("bad slot end time %q: %w", slot.EndTime, err)
	}

	want := slot.DayOfTheWeekNumber()
	var occurrences []occurrence
	for day := periodBegin; !day.After(periodEnd); day = day.AddDate(0, 0, 1) {
		iso := int(day.Weekday())
		if iso == 0 {
			iso = 7 // time.Sunday is 0, ISO Sunday is 7
		}
		if iso != want {
			continue
		}
		begin := time.Date(day.Year(), day.Month(), day.Day(),
			beginClock.Hour(), beginClock.Minute(), 0, 0, day.Location())
		end := time.Date(day.Year(), day.Month(), day.Day(),
			endClock.Hour(), endClock.Minute(), 0, 0, day.Location())
		occurrences = append(occurrences, occurrence{begin: begin, end: end})
	}
	return occurrences, nil
}

func reservationUnitIDs(reservation *model.Reservation) []string {
	if reservation.ReservationUnit == nil {
		return []string{}
	}
	return []string{reservation.ReservationUnit.UnitID}
}

func reservationToResponse(reservation *model.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:                  reservation.ReservationID,
		ReservationSeriesID: reservation.ReservationSeriesID,
		ReservationUnitID:   reservation.ReservationUnitID,
		UserID:              reservation.UserID,
		State:               string(reservation.State),
		AccessType:          string(reservation.AccessType),
		BeginsAt:            reservation.BeginsAt.Format(time.RFC3339),
		EndsAt:              reservation.EndsAt.Format(time.RFC3339),
	}
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
)

// ReservationSeriesRepository reservation series data access interface
type ReservationSeriesRepository interface {
	Create(ctx context.Context, series *model.ReservationSeries, reservations []model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.ReservationSeries, error)
	ListSeasonalByRound(ctx context.Context, roundID string) ([]model.ReservationSeries, error)
	DeleteSeasonalByRound(ctx context.Context, roundID string) error
}

// ReservationRepository reservation data access interface
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.Reservation, error)
	ListAffecting(ctx context.Context, reservationUnitID string, from, to time.Time) ([]model.Reservation, error)
	ListSeasonalByRound(ctx context.Context, roundID string) ([]model.Reservation, error)
	Update(ctx context.Context, reservation *model.Reservation) error
	SetState(ctx context.Context, id string, state model.ReservationState) error
}

// ── ReservationSeries implementation ──

type reservationSeriesRepo struct {
	db *gorm.DB
}

func NewReservationSeriesRepo(db *gorm.DB) ReservationSeriesRepository {
	return &reservationSeriesRepo{db: db}
}

func (r *reservationSeriesRepo) Create(ctx context.Context, series *model.ReservationSeries, reservations []model.Reservation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(series).Error; err != nil {
			return err
		}
		if len(reservations) == 0 {
			return nil
		}
		for i := range reservations {
			reservations[i].ReservationSeriesID = &series.ReservationSeriesID
		}
		return tx.CreateInBatches(reservations, 200).Error
	})
}

func (r *reservationSeriesRepo) GetByID(ctx context.Context, id string) (*model.ReservationSeries, error) {
	var series model.ReservationSeries
	err := r.db.WithContext(ctx).
		Preload("Reservations").
		Where("reservation_series_id = ?", id).
		First(&series).Error
	if err != nil {
		return nil, err
	}
	return &series, nil
}

func (r *reservationSeriesRepo) ListSeasonalByRound(ctx context.Context, roundID string) ([]model.ReservationSeries, error) {
	var series []model.ReservationSeries
	err := r.db.WithContext(ctx).
		Preload("Reservations").
		Where("series_type = ? AND allocated_time_slot_id IN (?)",
			model.SeriesTypeSeasonal, r.roundSlotIDs(ctx, roundID)).
		Find(&series).Error
	return series, err
}

// DeleteSeasonalByRound removes every seasonal series generated from the
// round's allocations, reservations first. Part of the allocation reset.
func (r *reservationSeriesRepo) DeleteSeasonalByRound(ctx context.Context, roundID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slotIDs := r.roundSlotIDsTx(tx, roundID)
		if err := tx.Exec(`
			DELETE FROM reservations
			WHERE reservation_series_id IN (
				SELECT reservation_series_id FROM reservation_series
				WHERE series_type = ? AND allocated_time_slot_id IN (?)
			)`, model.SeriesTypeSeasonal, slotIDs).Error; err != nil {
			return err
		}
		return tx.Exec(`
			DELETE FROM reservation_series
			WHERE series_type = ? AND allocated_time_slot_id IN (?)`,
			model.SeriesTypeSeasonal, slotIDs).Error
	})
}

// roundSlotIDs builds the subquery selecting the round's allocated slot ids.
func (r *reservationSeriesRepo) roundSlotIDs(ctx context.Context, roundID string) *gorm.DB {
	return r.roundSlotIDsTx(r.db.WithContext(ctx), roundID)
}

func (r *reservationSeriesRepo) roundSlotIDsTx(tx *gorm.DB, roundID string) *gorm.DB {
	return tx.Table("allocated_time_slots ats").
		Select("ats.allocated_time_slot_id").
		Joins("JOIN reservation_unit_options o ON o.reservation_unit_option_id = ats.reservation_unit_option_id").
		Joins("JOIN application_sections s ON s.application_section_id = o.application_section_id").
		Joins("JOIN applications a ON a.application_id = s.application_id").
		Where("a.application_round_id = ?", roundID)
}

// ── Reservation implementation ──

type reservationRepo struct {
	db *gorm.DB
}

func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("ReservationUnit").
		Where("reservation_id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("ReservationUnit").
		Where("user_id = ? AND begins_at < ? AND ends_at > ?", userID, to, from).
		Order("begins_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListAffecting returns every reservation that blocks the given reservation
// unit in [from, to): reservations on the unit itself plus reservations on
// any unit in its materialized affecting set. Cancelled and denied
// reservations never block. Interval overlap is half-open, so back-to-back
// bookings do not collide.
func (r *reservationRepo) ListAffecting(ctx context.Context, reservationUnitID string, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("ReservationUnit").
		Where(`(reservation_unit_id = ? OR reservation_unit_id IN (
			SELECT affecting_unit_id FROM affecting_reservation_units
			WHERE reservation_unit_id = ?
		))`, reservationUnitID, reservationUnitID).
		Where("state NOT IN ?", []model.ReservationState{
			model.ReservationStateCancelled,
			model.ReservationStateDenied,
		}).
		Where("begins_at < ? AND ends_at > ?", to, from).
		Order("begins_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListSeasonalByRound returns every reservation belonging to a seasonal
// series generated from the round's allocations. Input for the access-code
// revocation sweep of the allocation reset.
func (r *reservationRepo) ListSeasonalByRound(ctx context.Context, roundID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Joins("JOIN reservation_series rs ON rs.reservation_series_id = reservations.reservation_series_id").
		Joins("JOIN allocated_time_slots ats ON ats.allocated_time_slot_id = rs.allocated_time_slot_id").
		Joins("JOIN reservation_unit_options o ON o.reservation_unit_option_id = ats.reservation_unit_option_id").
		Joins("JOIN application_sections s ON s.application_section_id = o.application_section_id").
		Joins("JOIN applications a ON a.application_id = s.application_id").
		Where("rs.series_type = ? AND a.application_round_id = ?", model.SeriesTypeSeasonal, roundID).
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) Update(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).
		Model(reservation).
		Where("reservation_id = ?", reservation.ReservationID).
		Updates(map[string]interface{}{
			"state":       reservation.State,
			"access_type": reservation.AccessType,
			"begins_at":   reservation.BeginsAt,
			"ends_at":     reservation.EndsAt,
		}).Error
}

func (r *reservationRepo) SetState(ctx context.Context, id string, state model.ReservationState) error {
	return r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ?", id).
		Update("state", state).Error
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
)

// ReservationUnitOptionRepository ranked option data access interface
type ReservationUnitOptionRepository interface {
	ReplaceForSection(ctx context.Context, sectionID string, options []model.ReservationUnitOption) error
	GetByID(ctx context.Context, id string) (*model.ReservationUnitOption, error)
	ListBySection(ctx context.Context, sectionID string) ([]model.ReservationUnitOption, error)
	SetLocked(ctx context.Context, id string, locked bool) error
	SetRejected(ctx context.Context, id string, rejected bool) error
	ClearFlagsByRound(ctx context.Context, roundID string) error
}

// AllocatedTimeSlotRepository allocated slot data access interface
type AllocatedTimeSlotRepository interface {
	Create(ctx context.Context, slot *model.AllocatedTimeSlot) error
	GetByID(ctx context.Context, id string) (*model.AllocatedTimeSlot, error)
	ListByOption(ctx context.Context, optionID string) ([]model.AllocatedTimeSlot, error)
	ListByRound(ctx context.Context, roundID string) ([]model.AllocatedTimeSlot, error)
	CountBySection(ctx context.Context, sectionID string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByRound(ctx context.Context, roundID string) error
}

// ── ReservationUnitOption implementation ──

type reservationUnitOptionRepo struct {
	db *gorm.DB
}

func NewReservationUnitOptionRepo(db *gorm.DB) ReservationUnitOptionRepository {
	return &reservationUnitOptionRepo{db: db}
}

func (r *reservationUnitOptionRepo) ReplaceForSection(ctx context.Context, sectionID string, options []model.ReservationUnitOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_section_id = ?", sectionID).
			Delete(&model.ReservationUnitOption{}).Error; err != nil {
			return err
		}
		if len(options) == 0 {
			return nil
		}
		for i := range options {
			options[i].ApplicationSectionID = sectionID
		}
		return tx.Create(&options).Error
	})
}

func (r *reservationUnitOptionRepo) GetByID(ctx context.Context, id string) (*model.ReservationUnitOption, error) {
	var opt model.ReservationUnitOption
	err := r.db.WithContext(ctx).
		Preload("ReservationUnit").
		Preload("AllocatedTimeSlots").
		Where("reservation_unit_option_id = ?", id).
		First(&opt).Error
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

func (r *reservationUnitOptionRepo) ListBySection(ctx context.Context, sectionID string) ([]model.ReservationUnitOption, error) {
	var opts []model.ReservationUnitOption
	err := r.db.WithContext(ctx).
		Preload("ReservationUnit").
		Preload("AllocatedTimeSlots").
		Where("application_section_id = ?", sectionID).
		Order("preferred_order ASC").
		Find(&opts).Error
	return opts, err
}

func (r *reservationUnitOptionRepo) SetLocked(ctx context.Context, id string, locked bool) error {
	return r.db.WithContext(ctx).
		Model(&model.ReservationUnitOption{}).
		Where("reservation_unit_option_id = ?", id).
		Update("is_locked", locked).Error
}

func (r *reservationUnitOptionRepo) SetRejected(ctx context.Context, id string, rejected bool) error {
	return r.db.WithContext(ctx).
		Model(&model.ReservationUnitOption{}).
		Where("reservation_unit_option_id = ?", id).
		Update("is_rejected", rejected).Error
}

// ClearFlagsByRound resets is_locked and is_rejected on every option in the
// round. Part of the allocation reset.
func (r *reservationUnitOptionRepo) ClearFlagsByRound(ctx context.Context, roundID string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE reservation_unit_options SET is_locked = false, is_rejected = false
		WHERE application_section_id IN (
			SELECT s.application_section_id
			FROM application_sections s
			JOIN applications a ON a.application_id = s.application_id
			WHERE a.application_round_id = ?
		)`, roundID).Error
}

// ── AllocatedTimeSlot implementation ──

type allocatedTimeSlotRepo struct {
	db *gorm.DB
}

func NewAllocatedTimeSlotRepo(db *gorm.DB) AllocatedTimeSlotRepository {
	return &allocatedTimeSlotRepo{db: db}
}

func (r *allocatedTimeSlotRepo) Create(ctx context.Context, slot *model.AllocatedTimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *allocatedTimeSlotRepo) GetByID(ctx context.Context, id string) (*model.AllocatedTimeSlot, error) {
	var slot model.AllocatedTimeSlot
	err := r.db.WithContext(ctx).
		Preload("ReservationUnitOption").
		Where("allocated_time_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *allocatedTimeSlotRepo) ListByOption(ctx context.Context, optionID string) ([]model.AllocatedTimeSlot, error) {
	var slots []model.AllocatedTimeSlot
	err := r.db.WithContext(ctx).
		Where("reservation_unit_option_id = ?", optionID).
		Find(&slots).Error
	return slots, err
}

func (r *allocatedTimeSlotRepo) ListByRound(ctx context.Context, roundID string) ([]model.AllocatedTimeSlot, error) {
	var slots []model.AllocatedTimeSlot
	err := r.db.WithContext(ctx).
		Preload("ReservationUnitOption").
		Preload("ReservationUnitOption.ReservationUnit").
		Joins("JOIN reservation_unit_options o ON o.reservation_unit_option_id = allocated_time_slots.reservation_unit_option_id").
		Joins("JOIN application_sections s ON s.application_section_id = o.application_section_id").
		Joins("JOIN applications a ON a.application_id = s.application_id").
		Where("a.application_round_id = ?", roundID).
		Find(&slots).Error
	return slots, err
}

func (r *allocatedTimeSlotRepo) CountBySection(ctx context.Context, sectionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AllocatedTimeSlot{}).
		Joins("JOIN reservation_unit_options o ON o.reservation_unit_option_id = allocated_time_slots.reservation_unit_option_id").
		Where("o.application_section_id = ?", sectionID).
		Count(&count).Error
	return int(count), err
}

func (r *allocatedTimeSlotRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("allocated_time_slot_id = ?", id).
		Delete(&model.AllocatedTimeSlot{}).Error
}

// DeleteByRound removes every allocation in the round. Part of the
// allocation reset.
func (r *allocatedTimeSlotRepo) DeleteByRound(ctx context.Context, roundID string) error {
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM allocated_time_slots
		WHERE reservation_unit_option_id IN (
			SELECT o.reservation_unit_option_id
			FROM reservation_unit_options o
			JOIN application_sections s ON s.application_section_id = o.application_section_id
			JOIN applications a ON a.application_id = s.application_id
			WHERE a.application_round_id = ?
		)`, roundID).Error
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
)

// ApplicationRepository application data access interface
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	ListByRound(ctx context.Context, roundID string, offset, limit int) ([]model.Application, int64, error)
	ListByUser(ctx context.Context, userID string) ([]model.Application, error)
	Update(ctx context.Context, app *model.Application) error
	ClearResultsSentFlags(ctx context.Context, roundID string) error
}

// ApplicationSectionRepository application section data access interface
type ApplicationSectionRepository interface {
	Create(ctx context.Context, section *model.ApplicationSection) error
	GetByID(ctx context.Context, id string) (*model.ApplicationSection, error)
	ListByApplication(ctx context.Context, applicationID string) ([]model.ApplicationSection, error)
	ListByRound(ctx context.Context, roundID string) ([]model.ApplicationSection, error)
	Update(ctx context.Context, section *model.ApplicationSection) error
	Delete(ctx context.Context, id string) error
}

// SuitableTimeRangeRepository suitable time range data access interface
type SuitableTimeRangeRepository interface {
	ReplaceForSection(ctx context.Context, sectionID string, ranges []model.SuitableTimeRange) error
	ListBySection(ctx context.Context, sectionID string) ([]model.SuitableTimeRange, error)
}

// ── Application implementation ──

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("ApplicationRound").
		Preload("Sections").
		Preload("Sections.SuitableTimeRanges").
		Preload("Sections.ReservationUnitOptions").
		Preload("Sections.ReservationUnitOptions.ReservationUnit").
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) ListByRound(ctx context.Context, roundID string, offset, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("application_round_id = ?", roundID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Preload("Sections").
		Offset(offset).Limit(limit).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, total, err
}

func (r *applicationRepo) ListByUser(ctx context.Context, userID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Preload("ApplicationRound").
		Preload("Sections").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) Update(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).
		Model(app).
		Where("application_id = ?", app.ApplicationID).
		Updates(map[string]interface{}{
			"sent_at":                            app.SentAt,
			"cancelled_at":                       app.CancelledAt,
			"results_ready_notification_sent_at": app.ResultsReadyNotificationSentAt,
		}).Error
}

// ClearResultsSentFlags nulls the results-ready notification timestamps of
// every application in the round. Part of the allocation reset.
func (r *applicationRepo) ClearResultsSentFlags(ctx context.Context, roundID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("application_round_id = ?", roundID).
		Update("results_ready_notification_sent_at", nil).Error
}

// ── ApplicationSection implementation ──

type applicationSectionRepo struct {
	db *gorm.DB
}

func NewApplicationSectionRepo(db *gorm.DB) ApplicationSectionRepository {
	return &applicationSectionRepo{db: db}
}

func (r *applicationSectionRepo) Create(ctx context.Context, section *model.ApplicationSection) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *applicationSectionRepo) GetByID(ctx context.Context, id string) (*model.ApplicationSection, error) {
	var section model.ApplicationSection
	err := r.db.WithContext(ctx).
		Preload("SuitableTimeRanges").
		Preload("ReservationUnitOptions").
		Preload("ReservationUnitOptions.AllocatedTimeSlots").
		Where("application_section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *applicationSectionRepo) ListByApplication(ctx context.Context, applicationID string) ([]model.ApplicationSection, error) {
	var sections []model.ApplicationSection
	err := r.db.WithContext(ctx).
		Preload("SuitableTimeRanges").
		Preload("ReservationUnitOptions").
		Preload("ReservationUnitOptions.AllocatedTimeSlots").
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&sections).Error
	return sections, err
}

func (r *applicationSectionRepo) ListByRound(ctx context.Context, roundID string) ([]model.ApplicationSection, error) {
	var sections []model.ApplicationSection
	err := r.db.WithContext(ctx).
		Preload("SuitableTimeRanges").
		Preload("ReservationUnitOptions").
		Preload("ReservationUnitOptions.AllocatedTimeSlots").
		Joins("JOIN applications a ON a.application_id = application_sections.application_id").
		Where("a.application_round_id = ?", roundID).
		Find(&sections).Error
	return sections, err
}

func (r *applicationSectionRepo) Update(ctx context.Context, section *model.ApplicationSection) error {
	return r.db.WithContext(ctx).
		Model(section).
		Where("application_section_id = ?", section.ApplicationSectionID).
		Updates(map[string]interface{}{
			"name":                             section.Name,
			"num_persons":                      section.NumPersons,
			"reservations_begin_date":          section.ReservationsBeginDate,
			"reservations_end_date":            section.ReservationsEndDate,
			"reservation_min_duration_minutes": section.ReservationMinDurationMinutes,
			"reservation_max_duration_minutes": section.ReservationMaxDurationMinutes,
			"applied_reservations_per_week":    section.AppliedReservationsPerWeek,
		}).Error
}

func (r *applicationSectionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_section_id = ?", id).
			Delete(&model.SuitableTimeRange{}).Error; err != nil {
			return err
		}
		if err := tx.Where("application_section_id = ?", id).
			Delete(&model.ReservationUnitOption{}).Error; err != nil {
			return err
		}
		return tx.Where("application_section_id = ?", id).
			Delete(&model.ApplicationSection{}).Error
	})
}

// ── SuitableTimeRange implementation ──

type suitableTimeRangeRepo struct {
	db *gorm.DB
}

func NewSuitableTimeRangeRepo(db *gorm.DB) SuitableTimeRangeRepository {
	return &suitableTimeRangeRepo{db: db}
}

func (r *suitableTimeRangeRepo) ReplaceForSection(ctx context.Context, sectionID string, ranges []model.SuitableTimeRange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_section_id = ?", sectionID).
			Delete(&model.SuitableTimeRange{}).Error; err != nil {
			return err
		}
		if len(ranges) == 0 {
			return nil
		}
		for i := range ranges {
			ranges[i].ApplicationSectionID = sectionID
		}
		return tx.Create(&ranges).Error
	})
}

func (r *suitableTimeRangeRepo) ListBySection(ctx context.Context, sectionID string) ([]model.SuitableTimeRange, error) {
	var ranges []model.SuitableTimeRange
	err := r.db.WithContext(ctx).
		Where("application_section_id = ?", sectionID).
		Find(&ranges).Error
	return ranges, err
}

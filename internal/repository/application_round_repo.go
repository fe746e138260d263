package repository

import (
	"context"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
	pkgerrors "varaamo/backend/pkg/errors"
)

// ApplicationRoundRepository application round data access interface.
// Update is optimistically locked on the version column: concurrent handled/
// sent flag changes and resets must not silently overwrite each other.
type ApplicationRoundRepository interface {
	Create(ctx context.Context, round *model.ApplicationRound, reservationUnitIDs []string) error
	GetByID(ctx context.Context, id string) (*model.ApplicationRound, error)
	List(ctx context.Context) ([]model.ApplicationRound, error)
	Update(ctx context.Context, round *model.ApplicationRound) error
}

type applicationRoundRepo struct {
	db *gorm.DB
}

func NewApplicationRoundRepo(db *gorm.DB) ApplicationRoundRepository {
	return &applicationRoundRepo{db: db}
}

func (r *applicationRoundRepo) Create(ctx context.Context, round *model.ApplicationRound, reservationUnitIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(round).Error; err != nil {
			return err
		}
		for _, ruID := range reservationUnitIDs {
			link := map[string]interface{}{
				"application_round_id": round.ApplicationRoundID,
				"reservation_unit_id":  ruID,
			}
			if err := tx.Table("application_round_reservation_units").Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *applicationRoundRepo) GetByID(ctx context.Context, id string) (*model.ApplicationRound, error) {
	var round model.ApplicationRound
	err := r.db.WithContext(ctx).
		Preload("ReservationUnits").
		Where("application_round_id = ?", id).
		First(&round).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *applicationRoundRepo) List(ctx context.Context) ([]model.ApplicationRound, error) {
	var rounds []model.ApplicationRound
	err := r.db.WithContext(ctx).
		Preload("ReservationUnits").
		Order("application_period_begins_at DESC").
		Find(&rounds).Error
	return rounds, err
}

func (r *applicationRoundRepo) Update(ctx context.Context, round *model.ApplicationRound) error {
	oldVersion := round.Version
	result := r.db.WithContext(ctx).
		Model(round).
		Where("application_round_id = ? AND version = ?", round.ApplicationRoundID, oldVersion).
		Updates(map[string]interface{}{
			"name":                          round.Name,
			"application_period_begins_at":  round.ApplicationPeriodBeginsAt,
			"application_period_ends_at":    round.ApplicationPeriodEndsAt,
			"reservation_period_begin_date": round.ReservationPeriodBeginDate,
			"reservation_period_end_date":   round.ReservationPeriodEndDate,
			"handled_at":                    round.HandledAt,
			"sent_at":                       round.SentAt,
			"version":                       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	round.Version = oldVersion + 1
	return nil
}

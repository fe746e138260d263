package repository

import (
	"context"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
)

// UnitRepository unit data access interface
type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	GetByID(ctx context.Context, id string) (*model.Unit, error)
	List(ctx context.Context) ([]model.Unit, error)
	Update(ctx context.Context, unit *model.Unit) error
}

// UnitGroupRepository unit group data access interface
type UnitGroupRepository interface {
	Create(ctx context.Context, group *model.UnitGroup, unitIDs []string) error
	GetByID(ctx context.Context, id string) (*model.UnitGroup, error)
	List(ctx context.Context) ([]model.UnitGroup, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.UnitGroup, error)
	ReplaceUnits(ctx context.Context, groupID string, unitIDs []string) error
}

// ── Unit implementation ──

type unitRepo struct {
	db *gorm.DB
}

func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) Create(ctx context.Context, unit *model.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepo) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Preload("UnitGroups").
		Where("unit_id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) List(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&units).Error
	return units, err
}

func (r *unitRepo) Update(ctx context.Context, unit *model.Unit) error {
	return r.db.WithContext(ctx).
		Model(unit).
		Where("unit_id = ?", unit.UnitID).
		Update("name", unit.Name).Error
}

// ── UnitGroup implementation ──

type unitGroupRepo struct {
	db *gorm.DB
}

func NewUnitGroupRepo(db *gorm.DB) UnitGroupRepository {
	return &unitGroupRepo{db: db}
}

func (r *unitGroupRepo) Create(ctx context.Context, group *model.UnitGroup, unitIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return insertGroupUnits(tx, group.UnitGroupID, unitIDs)
	})
}

func (r *unitGroupRepo) GetByID(ctx context.Context, id string) (*model.UnitGroup, error) {
	var group model.UnitGroup
	err := r.db.WithContext(ctx).
		Preload("Units").
		Where("unit_group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *unitGroupRepo) List(ctx context.Context) ([]model.UnitGroup, error) {
	var groups []model.UnitGroup
	err := r.db.WithContext(ctx).
		Preload("Units").
		Order("name ASC").
		Find(&groups).Error
	return groups, err
}

func (r *unitGroupRepo) ListByUnit(ctx context.Context, unitID string) ([]model.UnitGroup, error) {
	var groups []model.UnitGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN unit_group_units ugu ON ugu.unit_group_id = unit_groups.unit_group_id").
		Where("ugu.unit_id = ?", unitID).
		Find(&groups).Error
	return groups, err
}

func (r *unitGroupRepo) ReplaceUnits(ctx context.Context, groupID string, unitIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM unit_group_units WHERE unit_group_id = ?", groupID).Error; err != nil {
			return err
		}
		return insertGroupUnits(tx, groupID, unitIDs)
	})
}

func insertGroupUnits(tx *gorm.DB, groupID string, unitIDs []string) error {
	for _, unitID := range unitIDs {
		link := map[string]interface{}{"unit_group_id": groupID, "unit_id": unitID}
		if err := tx.Table("unit_group_units").Create(link).Error; err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
)

// SpaceRepository space data access interface
type SpaceRepository interface {
	Create(ctx context.Context, space *model.Space) error
	GetByID(ctx context.Context, id string) (*model.Space, error)
	List(ctx context.Context) ([]model.Space, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.Space, error)
	Update(ctx context.Context, space *model.Space) error
	Delete(ctx context.Context, id string) error
}

// ResourceRepository resource data access interface
type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context) ([]model.Resource, error)
	Update(ctx context.Context, resource *model.Resource) error
	Delete(ctx context.Context, id string) error
}

// ReservationUnitRepository reservation unit data access interface
type ReservationUnitRepository interface {
	Create(ctx context.Context, ru *model.ReservationUnit, spaceIDs, resourceIDs []string) error
	GetByID(ctx context.Context, id string) (*model.ReservationUnit, error)
	List(ctx context.Context, includeArchived bool) ([]model.ReservationUnit, error)
	ListAllWithTopology(ctx context.Context) ([]model.ReservationUnit, error)
	Update(ctx context.Context, ru *model.ReservationUnit) error
	ReplaceSpaces(ctx context.Context, id string, spaceIDs []string) error
	ReplaceResources(ctx context.Context, id string, resourceIDs []string) error
	Archive(ctx context.Context, id string) error
}

// AffectingUnitRepository materialized affecting-pair data access interface
type AffectingUnitRepository interface {
	ReplaceAll(ctx context.Context, pairs []model.AffectingReservationUnit) error
	ListAffectingIDs(ctx context.Context, reservationUnitID string) ([]string, error)
}

// ── Space implementation ──

type spaceRepo struct {
	db *gorm.DB
}

func NewSpaceRepo(db *gorm.DB) SpaceRepository {
	return &spaceRepo{db: db}
}

func (r *spaceRepo) Create(ctx context.Context, space *model.Space) error {
	return r.db.WithContext(ctx).Create(space).Error
}

func (r *spaceRepo) GetByID(ctx context.Context, id string) (*model.Space, error) {
	var space model.Space
	err := r.db.WithContext(ctx).
		Where("space_id = ?", id).
		First(&space).Error
	if err != nil {
		return nil, err
	}
	return &space, nil
}

func (r *spaceRepo) List(ctx context.Context) ([]model.Space, error) {
	var spaces []model.Space
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&spaces).Error
	return spaces, err
}

func (r *spaceRepo) ListByUnit(ctx context.Context, unitID string) ([]model.Space, error) {
	var spaces []model.Space
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("name ASC").
		Find(&spaces).Error
	return spaces, err
}

func (r *spaceRepo) Update(ctx context.Context, space *model.Space) error {
	return r.db.WithContext(ctx).
		Model(space).
		Where("space_id = ?", space.SpaceID).
		Updates(map[string]interface{}{
			"name":            space.Name,
			"parent_space_id": space.ParentSpaceID,
		}).Error
}

func (r *spaceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("space_id = ?", id).
		Delete(&model.Space{}).Error
}

// ── Resource implementation ──

type resourceRepo struct {
	db *gorm.DB
}

func NewResourceRepo(db *gorm.DB) ResourceRepository {
	return &resourceRepo{db: db}
}

func (r *resourceRepo) Create(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *resourceRepo) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", id).
		First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepo) List(ctx context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&resources).Error
	return resources, err
}

func (r *resourceRepo) Update(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).
		Model(resource).
		Where("resource_id = ?", resource.ResourceID).
		Updates(map[string]interface{}{
			"name":     resource.Name,
			"space_id": resource.SpaceID,
		}).Error
}

func (r *resourceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("resource_id = ?", id).
		Delete(&model.Resource{}).Error
}

// ── ReservationUnit implementation ──

type reservationUnitRepo struct {
	db *gorm.DB
}

func NewReservationUnitRepo(db *gorm.DB) ReservationUnitRepository {
	return &reservationUnitRepo{db: db}
}

func (r *reservationUnitRepo) Create(ctx context.Context, ru *model.ReservationUnit, spaceIDs, resourceIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ru).Error; err != nil {
			return err
		}
		if err := insertReservationUnitLinks(tx, "reservation_unit_spaces", "space_id", ru.ReservationUnitID, spaceIDs); err != nil {
			return err
		}
		return insertReservationUnitLinks(tx, "reservation_unit_resources", "resource_id", ru.ReservationUnitID, resourceIDs)
	})
}

func (r *reservationUnitRepo) GetByID(ctx context.Context, id string) (*model.ReservationUnit, error) {
	var ru model.ReservationUnit
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Preload("Spaces").
		Preload("Resources").
		Where("reservation_unit_id = ?", id).
		First(&ru).Error
	if err != nil {
		return nil, err
	}
	return &ru, nil
}

func (r *reservationUnitRepo) List(ctx context.Context, includeArchived bool) ([]model.ReservationUnit, error) {
	var rus []model.ReservationUnit
	db := r.db.WithContext(ctx).Preload("Unit")
	if !includeArchived {
		db = db.Where("is_archived = false")
	}
	err := db.Order("name ASC").Find(&rus).Error
	return rus, err
}

// ListAllWithTopology loads every reservation unit with its spaces and
// resources. Input for the affecting-pair rebuild.
func (r *reservationUnitRepo) ListAllWithTopology(ctx context.Context) ([]model.ReservationUnit, error) {
	var rus []model.ReservationUnit
	err := r.db.WithContext(ctx).
		Preload("Spaces").
		Preload("Resources").
		Find(&rus).Error
	return rus, err
}

func (r *reservationUnitRepo) Update(ctx context.Context, ru *model.ReservationUnit) error {
	return r.db.WithContext(ctx).
		Model(ru).
		Where("reservation_unit_id = ?", ru.ReservationUnitID).
		Updates(map[string]interface{}{
			"name":    ru.Name,
			"unit_id": ru.UnitID,
		}).Error
}

func (r *reservationUnitRepo) ReplaceSpaces(ctx context.Context, id string, spaceIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM reservation_unit_spaces WHERE reservation_unit_id = ?", id).Error; err != nil {
			return err
		}
		return insertReservationUnitLinks(tx, "reservation_unit_spaces", "space_id", id, spaceIDs)
	})
}

func (r *reservationUnitRepo) ReplaceResources(ctx context.Context, id string, resourceIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM reservation_unit_resources WHERE reservation_unit_id = ?", id).Error; err != nil {
			return err
		}
		return insertReservationUnitLinks(tx, "reservation_unit_resources", "resource_id", id, resourceIDs)
	})
}

func (r *reservationUnitRepo) Archive(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.ReservationUnit{}).
		Where("reservation_unit_id = ?", id).
		Update("is_archived", true).Error
}

func insertReservationUnitLinks(tx *gorm.DB, table, column, reservationUnitID string, ids []string) error {
	for _, id := range ids {
		link := map[string]interface{}{"reservation_unit_id": reservationUnitID, column: id}
		if err := tx.Table(table).Create(link).Error; err != nil {
			return err
		}
	}
	return nil
}

// ── AffectingUnit implementation ──

type affectingUnitRepo struct {
	db *gorm.DB
}

func NewAffectingUnitRepo(db *gorm.DB) AffectingUnitRepository {
	return &affectingUnitRepo{db: db}
}

// ReplaceAll swaps the whole materialized pair table in one transaction.
func (r *affectingUnitRepo) ReplaceAll(ctx context.Context, pairs []model.AffectingReservationUnit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM affecting_reservation_units").Error; err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		return tx.CreateInBatches(pairs, 500).Error
	})
}

func (r *affectingUnitRepo) ListAffectingIDs(ctx context.Context, reservationUnitID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.AffectingReservationUnit{}).
		Where("reservation_unit_id = ?", reservationUnitID).
		Pluck("affecting_unit_id", &ids).Error
	return ids, err
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
)

// GeneralRoleRepository system-wide role assignment data access interface
type GeneralRoleRepository interface {
	Create(ctx context.Context, role *model.GeneralRole) error
	ListByUser(ctx context.Context, userID string) ([]model.GeneralRole, error)
	Delete(ctx context.Context, userID, role string) error
}

// UnitRoleRepository unit-scoped role assignment data access interface.
// ListByUser preloads Units and UnitGroups; the permission service flattens
// them into a RoleContext.
type UnitRoleRepository interface {
	Create(ctx context.Context, role *model.UnitRole, unitIDs, unitGroupIDs []string) error
	ListByUser(ctx context.Context, userID string) ([]model.UnitRole, error)
	Delete(ctx context.Context, unitRoleID string) error
}

// ── GeneralRole implementation ──

type generalRoleRepo struct {
	db *gorm.DB
}

func NewGeneralRoleRepo(db *gorm.DB) GeneralRoleRepository {
	return &generalRoleRepo{db: db}
}

func (r *generalRoleRepo) Create(ctx context.Context, role *model.GeneralRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *generalRoleRepo) ListByUser(ctx context.Context, userID string) ([]model.GeneralRole, error) {
	var roles []model.GeneralRole
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&roles).Error
	return roles, err
}

func (r *generalRoleRepo) Delete(ctx context.Context, userID, role string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&model.GeneralRole{}).Error
}

// ── UnitRole implementation ──

type unitRoleRepo struct {
	db *gorm.DB
}

func NewUnitRoleRepo(db *gorm.DB) UnitRoleRepository {
	return &unitRoleRepo{db: db}
}

func (r *unitRoleRepo) Create(ctx context.Context, role *model.UnitRole, unitIDs, unitGroupIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		for _, unitID := range unitIDs {
			link := map[string]interface{}{"unit_role_id": role.UnitRoleID, "unit_id": unitID}
			if err := tx.Table("unit_role_units").Create(link).Error; err != nil {
				return err
			}
		}
		for _, groupID := range unitGroupIDs {
			link := map[string]interface{}{"unit_role_id": role.UnitRoleID, "unit_group_id": groupID}
			if err := tx.Table("unit_role_unit_groups").Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *unitRoleRepo) ListByUser(ctx context.Context, userID string) ([]model.UnitRole, error) {
	var roles []model.UnitRole
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("UnitGroups").
		Where("user_id = ?", userID).
		Find(&roles).Error
	return roles, err
}

func (r *unitRoleRepo) Delete(ctx context.Context, unitRoleID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM unit_role_units WHERE unit_role_id = ?", unitRoleID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM unit_role_unit_groups WHERE unit_role_id = ?", unitRoleID).Error; err != nil {
			return err
		}
		return tx.Where("unit_role_id = ?", unitRoleID).
			Delete(&model.UnitRole{}).Error
	})
}

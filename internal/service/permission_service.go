package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/repository"
)

// PermissionService builds RoleContext values from stored role assignments.
// The checks themselves live in the permission package and are pure.
type PermissionService interface {
	ResolveContext(ctx context.Context, userID string) (*permission.RoleContext, error)
}

type permissionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPermissionService creates a PermissionService instance.
func NewPermissionService(repo *repository.Repository, logger *zap.Logger) PermissionService {
	return &permissionService{repo: repo, logger: logger}
}

// ResolveContext materializes one user's role assignments plus the unit group
// topology into a RoleContext. Assignments are read fresh on every request so
// revocations take effect immediately.
func (s *permissionService) ResolveContext(ctx context.Context, userID string) (*permission.RoleContext, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return permission.Anonymous(), nil
		}
		s.logger.Error("failed to load user for role resolution", zap.Error(err))
		return nil, err
	}

	rc := &permission.RoleContext{
		UserID:          user.UserID,
		IsAuthenticated: true,
		IsActive:        user.IsActive,
		IsSuperuser:     user.IsSuperuser,
		UnitRoles:       make(map[permission.Role][]string),
		UnitGroupRoles:  make(map[permission.Role][]string),
		UnitGroups:      make(map[string][]string),
		GroupUnits:      make(map[string][]string),
	}

	generalRoles, err := s.repo.GeneralRole.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, gr := range generalRoles {
		rc.GeneralRoles = append(rc.GeneralRoles, permission.Role(gr.Role))
	}

	unitRoles, err := s.repo.UnitRole.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, ur := range unitRoles {
		role := permission.Role(ur.Role)
		for _, unit := range ur.Units {
			rc.UnitRoles[role] = append(rc.UnitRoles[role], unit.UnitID)
		}
		for _, group := range ur.UnitGroups {
			rc.UnitGroupRoles[role] = append(rc.UnitGroupRoles[role], group.UnitGroupID)
		}
	}

	// group topology: needed to apply group roles transitively and to answer
	// "any unit where the user has a role"
	groups, err := s.repo.UnitGroup.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		for _, unit := range group.Units {
			rc.UnitGroups[unit.UnitID] = append(rc.UnitGroups[unit.UnitID], group.UnitGroupID)
			rc.GroupUnits[group.UnitGroupID] = append(rc.GroupUnits[group.UnitGroupID], unit.UnitID)
		}
	}

	return rc, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/repository"
)

// ErrPermissionDenied is returned by services when the acting user's role
// context does not pass the relevant check. Handlers translate it to the
// uniform 403 message; the reason is never disclosed.
var ErrPermissionDenied = errors.New("permission denied")

var (
	ErrUnknownRole      = errors.New("unknown role code")
	ErrEmptyRoleScope   = errors.New("a unit role needs at least one unit or unit group")
	ErrRoleAlreadyHeld  = errors.New("user already holds this general role")
	ErrUnitRoleNotFound = errors.New("unit role assignment not found")
)

// UserService user administration business interface
type UserService interface {
	Get(ctx context.Context, rc *permission.RoleContext, userID string) (*dto.UserDetailResponse, error)
	List(ctx context.Context, rc *permission.RoleContext, offset, limit int) (*dto.UserListResponse, error)
	Update(ctx context.Context, rc *permission.RoleContext, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	AssignGeneralRole(ctx context.Context, rc *permission.RoleContext, userID string, req *dto.AssignGeneralRoleRequest) error
	RevokeGeneralRole(ctx context.Context, rc *permission.RoleContext, userID, role string) error
	AssignUnitRole(ctx context.Context, rc *permission.RoleContext, userID string, req *dto.AssignUnitRoleRequest) error
	RevokeUnitRole(ctx context.Context, rc *permission.RoleContext, unitRoleID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService instance.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Get(ctx context.Context, rc *permission.RoleContext, userID string) (*dto.UserDetailResponse, error) {
	if !permission.CanViewUser(rc, userID) {
		return nil, ErrPermissionDenied
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	generalRoles, err := s.repo.GeneralRole.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	unitRoles, err := s.repo.UnitRole.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserDetailResponse{
		UserResponse: userToResponse(user),
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}
	for _, gr := range generalRoles {
		resp.GeneralRoles = append(resp.GeneralRoles, gr.Role)
	}
	for _, ur := range unitRoles {
		urResp := dto.UnitRoleResponse{ID: ur.UnitRoleID, Role: ur.Role}
		for _, unit := range ur.Units {
			urResp.UnitIDs = append(urResp.UnitIDs, unit.UnitID)
		}
		for _, group := range ur.UnitGroups {
			urResp.UnitGroupIDs = append(urResp.UnitGroupIDs, group.UnitGroupID)
		}
		resp.UnitRoles = append(resp.UnitRoles, urResp)
	}
	return resp, nil
}

func (s *userService) List(ctx context.Context, rc *permission.RoleContext, offset, limit int) (*dto.UserListResponse, error) {
	if rc.IsAnonymousOrInactive() {
		return nil, ErrPermissionDenied
	}
	if !rc.IsSuperuser &&
		!rc.HasGeneralRole(permission.RolesGranting(permission.CanViewUsers)...) &&
		!rc.HasRoleForUnits(nil, permission.RolesGranting(permission.CanViewUsers), false) {
		return nil, ErrPermissionDenied
	}

	users, total, err := s.repo.User.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserListResponse{Total: total}
	for i := range users {
		resp.Users = append(resp.Users, userToResponse(&users[i]))
	}
	return resp, nil
}

func (s *userService) Update(ctx context.Context, rc *permission.RoleContext, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	// users may edit their own profile; deactivation is superuser-only
	if rc.IsAnonymousOrInactive() || (rc.UserID != userID && !rc.IsSuperuser) {
		return nil, ErrPermissionDenied
	}
	if req.IsActive != nil && !rc.IsSuperuser {
		return nil, ErrPermissionDenied
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user", zap.Error(err))
		return nil, err
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *userService) AssignGeneralRole(ctx context.Context, rc *permission.RoleContext, userID string, req *dto.AssignGeneralRoleRequest) error {
	if rc.IsAnonymousOrInactive() || !rc.IsSuperuser {
		return ErrPermissionDenied
	}
	if !permission.IsValidRole(permission.Role(req.Role)) {
		return ErrUnknownRole
	}

	existing, err := s.repo.GeneralRole.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, gr := range existing {
		if gr.Role == req.Role {
			return ErrRoleAlreadyHeld
		}
	}

	return s.repo.GeneralRole.Create(ctx, &model.GeneralRole{
		UserID: userID,
		Role:   req.Role,
	})
}

func (s *userService) RevokeGeneralRole(ctx context.Context, rc *permission.RoleContext, userID, role string) error {
	if rc.IsAnonymousOrInactive() || !rc.IsSuperuser {
		return ErrPermissionDenied
	}
	return s.repo.GeneralRole.Delete(ctx, userID, role)
}

func (s *userService) AssignUnitRole(ctx context.Context, rc *permission.RoleContext, userID string, req *dto.AssignUnitRoleRequest) error {
	if rc.IsAnonymousOrInactive() || !rc.IsSuperuser {
		return ErrPermissionDenied
	}
	if !permission.IsValidRole(permission.Role(req.Role)) {
		return ErrUnknownRole
	}
	if len(req.UnitIDs) == 0 && len(req.UnitGroupIDs) == 0 {
		return ErrEmptyRoleScope
	}

	role := &model.UnitRole{UserID: userID, Role: req.Role}
	return s.repo.UnitRole.Create(ctx, role, req.UnitIDs, req.UnitGroupIDs)
}

func (s *userService) RevokeUnitRole(ctx context.Context, rc *permission.RoleContext, unitRoleID string) error {
	if rc.IsAnonymousOrInactive() || !rc.IsSuperuser {
		return ErrPermissionDenied
	}
	return s.repo.UnitRole.Delete(ctx, unitRoleID)
}

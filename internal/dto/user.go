package dto

// ── user module DTOs ──

// UserResponse user details (sanitized)
type UserResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
}

// UserDetailResponse user details plus role assignments (GET /users/:id)
type UserDetailResponse struct {
	UserResponse
	GeneralRoles []string           `json:"general_roles"`
	UnitRoles    []UnitRoleResponse `json:"unit_roles"`
	CreatedAt    string             `json:"created_at"`
}

// UpdateUserRequest profile update payload
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name"  binding:"omitempty,min=1,max=100"`
	Email     *string `json:"email"      binding:"omitempty,email"`
	IsActive  *bool   `json:"is_active"`
}

// AssignGeneralRoleRequest system-wide role grant payload
type AssignGeneralRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AssignUnitRoleRequest unit-scoped role grant payload. At least one of
// unit_ids and unit_group_ids must be non-empty.
type AssignUnitRoleRequest struct {
	Role         string   `json:"role"           binding:"required"`
	UnitIDs      []string `json:"unit_ids"       binding:"omitempty,dive,uuid"`
	UnitGroupIDs []string `json:"unit_group_ids" binding:"omitempty,dive,uuid"`
}

// UnitRoleResponse one unit-scoped role assignment
type UnitRoleResponse struct {
	ID           string   `json:"id"`
	Role         string   `json:"role"`
	UnitIDs      []string `json:"unit_ids"`
	UnitGroupIDs []string `json:"unit_group_ids"`
}

// UserListResponse paginated user listing
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
}

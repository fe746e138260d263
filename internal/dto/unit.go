package dto

// ── unit / space / resource module DTOs ──

// CreateUnitRequest unit creation payload
type CreateUnitRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// UnitResponse unit details
type UnitResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	UnitGroups []string `json:"unit_groups,omitempty"`
}

// CreateUnitGroupRequest unit group creation payload
type CreateUnitGroupRequest struct {
	Name    string   `json:"name"     binding:"required,min=1,max=255"`
	UnitIDs []string `json:"unit_ids" binding:"omitempty,dive,uuid"`
}

// UnitGroupResponse unit group details
type UnitGroupResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	UnitIDs []string `json:"unit_ids"`
}

// CreateSpaceRequest space creation payload
type CreateSpaceRequest struct {
	UnitID        string  `json:"unit_id"         binding:"required,uuid"`
	ParentSpaceID *string `json:"parent_space_id" binding:"omitempty,uuid"`
	Name          string  `json:"name"            binding:"required,min=1,max=255"`
}

// UpdateSpaceParentRequest space re-parenting payload. A null parent detaches
// the space to the root of its unit.
type UpdateSpaceParentRequest struct {
	ParentSpaceID *string `json:"parent_space_id" binding:"omitempty,uuid"`
}

// SpaceResponse space details
type SpaceResponse struct {
	ID            string  `json:"id"`
	UnitID        string  `json:"unit_id"`
	ParentSpaceID *string `json:"parent_space_id,omitempty"`
	Name          string  `json:"name"`
}

// CreateResourceRequest resource creation payload
type CreateResourceRequest struct {
	SpaceID *string `json:"space_id" binding:"omitempty,uuid"`
	Name    string  `json:"name"     binding:"required,min=1,max=255"`
}

// ResourceResponse resource details
type ResourceResponse struct {
	ID      string  `json:"id"`
	SpaceID *string `json:"space_id,omitempty"`
	Name    string  `json:"name"`
}

// CreateReservationUnitRequest reservation unit creation payload
type CreateReservationUnitRequest struct {
	UnitID      string   `json:"unit_id"      binding:"required,uuid"`
	Name        string   `json:"name"         binding:"required,min=1,max=255"`
	SpaceIDs    []string `json:"space_ids"    binding:"omitempty,dive,uuid"`
	ResourceIDs []string `json:"resource_ids" binding:"omitempty,dive,uuid"`
}

// ReservationUnitResponse reservation unit details
type ReservationUnitResponse struct {
	ID          string   `json:"id"`
	UnitID      string   `json:"unit_id"`
	Name        string   `json:"name"`
	IsArchived  bool     `json:"is_archived"`
	SpaceIDs    []string `json:"space_ids,omitempty"`
	ResourceIDs []string `json:"resource_ids,omitempty"`
}

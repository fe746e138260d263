package model

import "time"

// User identity row — maps to users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FirstName    string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	IsSuperuser  bool   `gorm:"not null;default:false"                         json:"is_superuser"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// associations
	GeneralRoles []GeneralRole `gorm:"foreignKey:UserID" json:"general_roles,omitempty"`
	UnitRoles    []UnitRole    `gorm:"foreignKey:UserID" json:"unit_roles,omitempty"`
}

// TableName sets the table name.
func (User) TableName() string { return "users" }

// GeneralRole a system-wide role assignment — maps to general_roles
type GeneralRole struct {
	GeneralRoleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"general_role_id"`
	UserID        string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Role          string    `gorm:"type:varchar(30);not null"                      json:"role"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (GeneralRole) TableName() string { return "general_roles" }

// UnitRole a role assignment scoped to units and/or unit groups — maps to unit_roles
type UnitRole struct {
	UnitRoleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_role_id"`
	UserID     string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Role       string    `gorm:"type:varchar(30);not null"                      json:"role"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// associations
	Units      []Unit      `gorm:"many2many:unit_role_units;foreignKey:UnitRoleID;joinForeignKey:UnitRoleID;references:UnitID;joinReferences:UnitID"                          json:"units,omitempty"`
	UnitGroups []UnitGroup `gorm:"many2many:unit_role_unit_groups;foreignKey:UnitRoleID;joinForeignKey:UnitRoleID;references:UnitGroupID;joinReferences:UnitGroupID" json:"unit_groups,omitempty"`
}

func (UnitRole) TableName() string { return "unit_roles" }

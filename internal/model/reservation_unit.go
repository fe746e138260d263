package model

// Space a bookable room/area inside a unit — maps to spaces.
// Spaces form a tree via ParentSpaceID; a reservation in a space blocks
// its whole ancestor/descendant chain.
type Space struct {
	SpaceID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"space_id"`
	UnitID        string  `gorm:"type:uuid;not null"                             json:"unit_id"`
	ParentSpaceID *string `gorm:"type:uuid"                                      json:"parent_space_id,omitempty"`
	Name          string  `gorm:"type:varchar(255);not null"                     json:"name"`
	BaseModel

	// associations
	Unit *Unit `gorm:"foreignKey:UnitID;references:UnitID" json:"unit,omitempty"`
}

// TableName sets the table name.
func (Space) TableName() string { return "spaces" }

// Resource a piece of equipment attached to a space — maps to resources
type Resource struct {
	ResourceID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"resource_id"`
	SpaceID    *string `gorm:"type:uuid"                                      json:"space_id,omitempty"`
	Name       string  `gorm:"type:varchar(255);not null"                     json:"name"`
	BaseModel
}

func (Resource) TableName() string { return "resources" }

// ReservationUnit the reservable entity shown to applicants — maps to reservation_units
type ReservationUnit struct {
	ReservationUnitID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_unit_id"`
	UnitID            string `gorm:"type:uuid;not null"                             json:"unit_id"`
	Name              string `gorm:"type:varchar(255);not null"                     json:"name"`
	IsArchived        bool   `gorm:"not null;default:false"                         json:"is_archived"`
	BaseModel

	// associations
	Unit      *Unit      `gorm:"foreignKey:UnitID;references:UnitID" json:"unit,omitempty"`
	Spaces    []Space    `gorm:"many2many:reservation_unit_spaces;foreignKey:ReservationUnitID;joinForeignKey:ReservationUnitID;references:SpaceID;joinReferences:SpaceID"             json:"spaces,omitempty"`
	Resources []Resource `gorm:"many2many:reservation_unit_resources;foreignKey:ReservationUnitID;joinForeignKey:ReservationUnitID;references:ResourceID;joinReferences:ResourceID" json:"resources,omitempty"`
}

func (ReservationUnit) TableName() string { return "reservation_units" }

// AffectingReservationUnit a materialized pair of reservation units that
// block each other through a shared space chain or resource — maps to
// affecting_reservation_units. Rebuilt whenever the topology changes.
type AffectingReservationUnit struct {
	ReservationUnitID string `gorm:"type:uuid;primaryKey" json:"reservation_unit_id"`
	AffectingUnitID   string `gorm:"type:uuid;primaryKey" json:"affecting_unit_id"`
}

func (AffectingReservationUnit) TableName() string { return "affecting_reservation_units" }

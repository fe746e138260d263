package model

// Unit a physical/organizational location owning reservation units — maps to units
type Unit struct {
	UnitID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_id"`
	Name   string `gorm:"type:varchar(255);not null"                     json:"name"`
	BaseModel

	// associations
	UnitGroups []UnitGroup `gorm:"many2many:unit_group_units;foreignKey:UnitID;joinForeignKey:UnitID;references:UnitGroupID;joinReferences:UnitGroupID" json:"unit_groups,omitempty"`
}

// TableName sets the table name.
func (Unit) TableName() string { return "units" }

// UnitGroup a named set of units — maps to unit_groups.
// A role granted on a group applies transitively to every unit in it.
type UnitGroup struct {
	UnitGroupID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_group_id"`
	Name        string `gorm:"type:varchar(255);not null"                     json:"name"`
	BaseModel

	// associations
	Units []Unit `gorm:"many2many:unit_group_units;foreignKey:UnitGroupID;joinForeignKey:UnitGroupID;references:UnitID;joinReferences:UnitID" json:"units,omitempty"`
}

func (UnitGroup) TableName() string { return "unit_groups" }

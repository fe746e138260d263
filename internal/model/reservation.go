package model

import "time"

// ── reservation enumerations ──

// ReservationState lifecycle state of a reservation
type ReservationState string

const (
	ReservationStateCreated           ReservationState = "CREATED"
	ReservationStateConfirmed         ReservationState = "CONFIRMED"
	ReservationStateRequiresHandling  ReservationState = "REQUIRES_HANDLING"
	ReservationStateWaitingForPayment ReservationState = "WAITING_FOR_PAYMENT"
	ReservationStateCancelled         ReservationState = "CANCELLED"
	ReservationStateDenied            ReservationState = "DENIED"
)

// IsBlocking reports whether the state represents a real hold on the unit.
func (s ReservationState) IsBlocking() bool {
	return s != ReservationStateCancelled && s != ReservationStateDenied
}

// AccessType how the reserver gets into the space
type AccessType string

const (
	AccessTypeUnrestricted AccessType = "UNRESTRICTED"
	AccessTypeAccessCode   AccessType = "ACCESS_CODE"
	AccessTypePhysicalKey  AccessType = "PHYSICAL_KEY"
)

// SeriesTypeSeasonal marks series generated from allocated time slots.
const SeriesTypeSeasonal = "SEASONAL"

// ── entities ──

// ReservationSeries a recurring reservation generated from an allocation — maps to reservation_series
type ReservationSeries struct {
	ReservationSeriesID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_series_id"`
	AllocatedTimeSlotID *string   `gorm:"type:uuid"                                      json:"allocated_time_slot_id,omitempty"`
	ReservationUnitID   string    `gorm:"type:uuid;not null"                             json:"reservation_unit_id"`
	UserID              string    `gorm:"type:uuid;not null"                             json:"user_id"`
	SeriesType          string    `gorm:"type:varchar(20);not null"                      json:"series_type"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// associations
	Reservations []Reservation `gorm:"foreignKey:ReservationSeriesID" json:"reservations,omitempty"`
}

// TableName sets the table name.
func (ReservationSeries) TableName() string { return "reservation_series" }

// Reservation one concrete occurrence — maps to reservations
type Reservation struct {
	ReservationID       string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	ReservationSeriesID *string          `gorm:"type:uuid"                                      json:"reservation_series_id,omitempty"`
	ReservationUnitID   string           `gorm:"type:uuid;not null"                             json:"reservation_unit_id"`
	UserID              string           `gorm:"type:uuid;not null"                             json:"user_id"`
	State               ReservationState `gorm:"type:varchar(30);not null"                      json:"state"`
	AccessType          AccessType       `gorm:"type:varchar(30);not null;default:'UNRESTRICTED'" json:"access_type"`
	BeginsAt            time.Time        `gorm:"not null"                                       json:"begins_at"`
	EndsAt              time.Time        `gorm:"not null"                                       json:"ends_at"`
	BaseModel

	// associations
	ReservationUnit *ReservationUnit `gorm:"foreignKey:ReservationUnitID;references:ReservationUnitID" json:"reservation_unit,omitempty"`
}

func (Reservation) TableName() string { return "reservations" }

// HasActiveAccessCode reports whether an access code exists for this
// reservation in the keyless-entry service and must be revoked before the
// local row may be deleted.
func (r *Reservation) HasActiveAccessCode() bool {
	return r.AccessType == AccessTypeAccessCode && r.State == ReservationStateConfirmed
}

package model

import "time"

// RoundStatus derived lifecycle state of an application round
type RoundStatus string

const (
	RoundStatusUpcoming     RoundStatus = "UPCOMING"
	RoundStatusOpen         RoundStatus = "OPEN"
	RoundStatusInAllocation RoundStatus = "IN_ALLOCATION"
	RoundStatusHandled      RoundStatus = "HANDLED"
	RoundStatusResultsSent  RoundStatus = "RESULTS_SENT"
)

// ApplicationRound the aggregate owning one application period — maps to application_rounds.
// Status is never stored; it is always derived from the time window and the
// handled/sent flags.
type ApplicationRound struct {
	ApplicationRoundID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_round_id"`
	Name                      string     `gorm:"type:varchar(255);not null"                     json:"name"`
	ApplicationPeriodBeginsAt time.Time  `gorm:"not null"                                       json:"application_period_begins_at"`
	ApplicationPeriodEndsAt   time.Time  `gorm:"not null"                                       json:"application_period_ends_at"`
	ReservationPeriodBeginDate time.Time `gorm:"type:date;not null"                             json:"reservation_period_begin_date"`
	ReservationPeriodEndDate   time.Time `gorm:"type:date;not null"                             json:"reservation_period_end_date"`
	HandledAt                 *time.Time `json:"handled_at,omitempty"`
	SentAt                    *time.Time `json:"sent_at,omitempty"`
	VersionedModel

	// associations
	ReservationUnits []ReservationUnit `gorm:"many2many:application_round_reservation_units;foreignKey:ApplicationRoundID;joinForeignKey:ApplicationRoundID;references:ReservationUnitID;joinReferences:ReservationUnitID" json:"reservation_units,omitempty"`
}

// TableName sets the table name.
func (ApplicationRound) TableName() string { return "application_rounds" }

// Status derives the round status at the given instant.
// Evaluated as a priority chain: sent beats handled beats the time window.
func (r *ApplicationRound) Status(now time.Time) RoundStatus {
	switch {
	case r.SentAt != nil:
		return RoundStatusResultsSent
	case r.HandledAt != nil:
		return RoundStatusHandled
	case now.Before(r.ApplicationPeriodBeginsAt):
		return RoundStatusUpcoming
	case now.Before(r.ApplicationPeriodEndsAt):
		return RoundStatusOpen
	default:
		return RoundStatusInAllocation
	}
}

// UnitIDs collects the owning unit ids of the round's reservation units,
// deduplicated. Used to scope round-management permission checks.
func (r *ApplicationRound) UnitIDs() []string {
	seen := make(map[string]bool, len(r.ReservationUnits))
	ids := make([]string, 0, len(r.ReservationUnits))
	for _, ru := range r.ReservationUnits {
		if !seen[ru.UnitID] {
			seen[ru.UnitID] = true
			ids = append(ids, ru.UnitID)
		}
	}
	return ids
}

package model

import (
	"fmt"
	"time"
)

// ── weekday enumeration ──

// Weekday day-of-week code used by suitable time ranges and allocations
type Weekday string

const (
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
	WeekdaySaturday  Weekday = "SATURDAY"
	WeekdaySunday    Weekday = "SUNDAY"
)

var weekdayNumbers = map[Weekday]int{
	WeekdayMonday:    1,
	WeekdayTuesday:   2,
	WeekdayWednesday: 3,
	WeekdayThursday:  4,
	WeekdayFriday:    5,
	WeekdaySaturday:  6,
	WeekdaySunday:    7,
}

// Number returns the ISO weekday number (Monday=1 … Sunday=7), 0 if unknown.
func (w Weekday) Number() int { return weekdayNumbers[w] }

// IsValid reports whether the code is a known weekday.
func (w Weekday) IsValid() bool { return weekdayNumbers[w] != 0 }

// ── application statuses ──

// ApplicationStatus derived lifecycle state of an application
type ApplicationStatus string

const (
	ApplicationStatusDraft        ApplicationStatus = "DRAFT"
	ApplicationStatusReceived     ApplicationStatus = "RECEIVED"
	ApplicationStatusInAllocation ApplicationStatus = "IN_ALLOCATION"
	ApplicationStatusHandled      ApplicationStatus = "HANDLED"
	ApplicationStatusResultsSent  ApplicationStatus = "RESULTS_SENT"
	ApplicationStatusCancelled    ApplicationStatus = "CANCELLED"
	ApplicationStatusExpired      ApplicationStatus = "EXPIRED"
)

// SectionStatus derived lifecycle state of an application section
type SectionStatus string

const (
	SectionStatusUnallocated  SectionStatus = "UNALLOCATED"
	SectionStatusInAllocation SectionStatus = "IN_ALLOCATION"
	SectionStatusHandled      SectionStatus = "HANDLED"
	SectionStatusRejected     SectionStatus = "REJECTED"
)

// ── entities ──

// Application one seasonal request by a user for an application round — maps to applications
type Application struct {
	ApplicationID                  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	ApplicationRoundID             string     `gorm:"type:uuid;not null"                             json:"application_round_id"`
	UserID                         string     `gorm:"type:uuid;not null"                             json:"user_id"`
	SentAt                         *time.Time `json:"sent_at,omitempty"`
	CancelledAt                    *time.Time `json:"cancelled_at,omitempty"`
	ResultsReadyNotificationSentAt *time.Time `json:"results_ready_notification_sent_at,omitempty"`
	BaseModel

	// associations
	User             *User                `gorm:"foreignKey:UserID;references:UserID"                             json:"user,omitempty"`
	ApplicationRound *ApplicationRound    `gorm:"foreignKey:ApplicationRoundID;references:ApplicationRoundID"     json:"application_round,omitempty"`
	Sections         []ApplicationSection `gorm:"foreignKey:ApplicationID"                                        json:"sections,omitempty"`
}

// TableName sets the table name.
func (Application) TableName() string { return "applications" }

// Status derives the application status from its own flags and the round status.
func (a *Application) Status(roundStatus RoundStatus) ApplicationStatus {
	switch {
	case a.CancelledAt != nil:
		return ApplicationStatusCancelled
	case a.SentAt == nil:
		// never sent: an open round means a draft, a closed one an expired application
		if roundStatus == RoundStatusUpcoming || roundStatus == RoundStatusOpen {
			return ApplicationStatusDraft
		}
		return ApplicationStatusExpired
	case roundStatus == RoundStatusResultsSent:
		return ApplicationStatusResultsSent
	case roundStatus == RoundStatusHandled:
		return ApplicationStatusHandled
	case roundStatus == RoundStatusInAllocation:
		return ApplicationStatusInAllocation
	default:
		return ApplicationStatusReceived
	}
}

// ApplicationSection one named request within an application — maps to application_sections
type ApplicationSection struct {
	ApplicationSectionID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_section_id"`
	ApplicationID                 string    `gorm:"type:uuid;not null"                             json:"application_id"`
	Name                          string    `gorm:"type:varchar(255);not null"                     json:"name"`
	NumPersons                    int       `gorm:"not null"                                       json:"num_persons"`
	ReservationsBeginDate         time.Time `gorm:"type:date;not null"                             json:"reservations_begin_date"`
	ReservationsEndDate           time.Time `gorm:"type:date;not null"                             json:"reservations_end_date"`
	ReservationMinDurationMinutes int       `gorm:"not null"                                       json:"reservation_min_duration_minutes"`
	ReservationMaxDurationMinutes int       `gorm:"not null"                                       json:"reservation_max_duration_minutes"`
	AppliedReservationsPerWeek    int       `gorm:"not null"                                       json:"applied_reservations_per_week"`
	BaseModel

	// associations
	SuitableTimeRanges     []SuitableTimeRange     `gorm:"foreignKey:ApplicationSectionID" json:"suitable_time_ranges,omitempty"`
	ReservationUnitOptions []ReservationUnitOption `gorm:"foreignKey:ApplicationSectionID" json:"reservation_unit_options,omitempty"`
}

func (ApplicationSection) TableName() string { return "application_sections" }

// Status derives the section status from its options, the number of
// allocations across them, and the owning round's status.
func (s *ApplicationSection) Status(roundStatus RoundStatus, allocationCount int) SectionStatus {
	if roundStatus == RoundStatusHandled || roundStatus == RoundStatusResultsSent {
		if allocationCount > 0 {
			return SectionStatusHandled
		}
		return SectionStatusRejected
	}
	if allocationCount >= s.AppliedReservationsPerWeek && s.AppliedReservationsPerWeek > 0 {
		return SectionStatusHandled
	}
	if allocationCount == 0 && !s.hasTouchedOptions() {
		return SectionStatusUnallocated
	}
	return SectionStatusInAllocation
}

func (s *ApplicationSection) hasTouchedOptions() bool {
	for _, opt := range s.ReservationUnitOptions {
		if opt.IsLocked || opt.IsRejected {
			return true
		}
	}
	return false
}

// SuitableTimeRange a desired weekly time window for a section — maps to suitable_time_ranges
type SuitableTimeRange struct {
	SuitableTimeRangeID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"suitable_time_range_id"`
	ApplicationSectionID string  `gorm:"type:uuid;not null"                             json:"application_section_id"`
	Priority             string  `gorm:"type:varchar(20);not null"                      json:"priority"` // PRIMARY | SECONDARY
	DayOfTheWeek         Weekday `gorm:"type:varchar(10);not null"                      json:"day_of_the_week"`
	BeginTime            string  `gorm:"type:time;not null"                             json:"begin_time"` // "17:00"
	EndTime              string  `gorm:"type:time;not null"                             json:"end_time"`   // "19:00"
}

func (SuitableTimeRange) TableName() string { return "suitable_time_ranges" }

// ReservationUnitOption a ranked candidate reservation unit for a section — maps to reservation_unit_options.
// is_locked and is_rejected are mutually exclusive allocation markers; both
// reset to false when the round's allocation is reset.
type ReservationUnitOption struct {
	ReservationUnitOptionID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_unit_option_id"`
	ApplicationSectionID    string `gorm:"type:uuid;not null"                             json:"application_section_id"`
	ReservationUnitID       string `gorm:"type:uuid;not null"                             json:"reservation_unit_id"`
	PreferredOrder          int    `gorm:"not null"                                       json:"preferred_order"`
	IsLocked                bool   `gorm:"not null;default:false"                         json:"is_locked"`
	IsRejected              bool   `gorm:"not null;default:false"                         json:"is_rejected"`

	// associations
	ReservationUnit    *ReservationUnit    `gorm:"foreignKey:ReservationUnitID;references:ReservationUnitID"       json:"reservation_unit,omitempty"`
	AllocatedTimeSlots []AllocatedTimeSlot `gorm:"foreignKey:ReservationUnitOptionID"                              json:"allocated_time_slots,omitempty"`
}

func (ReservationUnitOption) TableName() string { return "reservation_unit_options" }

// AllocatedTimeSlot a concrete weekly slot assigned to an option — maps to allocated_time_slots
type AllocatedTimeSlot struct {
	AllocatedTimeSlotID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"allocated_time_slot_id"`
	ReservationUnitOptionID string    `gorm:"type:uuid;not null"                             json:"reservation_unit_option_id"`
	DayOfTheWeek            Weekday   `gorm:"type:varchar(10);not null"                      json:"day_of_the_week"`
	BeginTime               string    `gorm:"type:time;not null"                             json:"begin_time"`
	EndTime                 string    `gorm:"type:time;not null"                             json:"end_time"`
	CreatedAt               time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// associations
	ReservationUnitOption *ReservationUnitOption `gorm:"foreignKey:ReservationUnitOptionID;references:ReservationUnitOptionID" json:"reservation_unit_option,omitempty"`
}

func (AllocatedTimeSlot) TableName() string { return "allocated_time_slots" }

// DayOfTheWeekNumber returns the ISO weekday number of the slot.
func (s *AllocatedTimeSlot) DayOfTheWeekNumber() int { return s.DayOfTheWeek.Number() }

// AllocatedTimeOfWeek returns the canonical conflict-index key, e.g. "1-17:00-19:00".
func (s *AllocatedTimeSlot) AllocatedTimeOfWeek() string {
	return fmt.Sprintf("%d-%s-%s", s.DayOfTheWeek.Number(), s.BeginTime, s.EndTime)
}

package dto

// ── application module DTOs ──

// CreateApplicationRequest application creation payload
type CreateApplicationRequest struct {
	ApplicationRoundID string `json:"application_round_id" binding:"required,uuid"`
}

// ApplicationResponse application details with derived status
type ApplicationResponse struct {
	ID                 string            `json:"id"`
	ApplicationRoundID string            `json:"application_round_id"`
	UserID             string            `json:"user_id"`
	Status             string            `json:"status"`
	SentAt             *string           `json:"sent_at,omitempty"`
	CancelledAt        *string           `json:"cancelled_at,omitempty"`
	Sections           []SectionResponse `json:"sections,omitempty"`
	CreatedAt          string            `json:"created_at"`
}

// ApplicationListResponse paginated application listing
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Total        int64                 `json:"total"`
}

// CreateSectionRequest application section creation payload
type CreateSectionRequest struct {
	Name                          string                     `json:"name"                             binding:"required,min=1,max=255"`
	NumPersons                    int                        `json:"num_persons"                      binding:"required,min=1"`
	ReservationsBeginDate         string                     `json:"reservations_begin_date"          binding:"required"` // "2026-09-01"
	ReservationsEndDate           string                     `json:"reservations_end_date"            binding:"required"`
	ReservationMinDurationMinutes int                        `json:"reservation_min_duration_minutes" binding:"required,min=15"`
	ReservationMaxDurationMinutes int                        `json:"reservation_max_duration_minutes" binding:"required,min=15"`
	AppliedReservationsPerWeek    int                        `json:"applied_reservations_per_week"    binding:"required,min=1,max=7"`
	SuitableTimeRanges            []SuitableTimeRangeRequest `json:"suitable_time_ranges"             binding:"required,min=1,dive"`
	ReservationUnitOptions        []UnitOptionRequest        `json:"reservation_unit_options"         binding:"required,min=1,dive"`
}

// UpdateSectionRequest application section update payload
type UpdateSectionRequest struct {
	Name                          *string                    `json:"name"                             binding:"omitempty,min=1,max=255"`
	NumPersons                    *int                       `json:"num_persons"                      binding:"omitempty,min=1"`
	ReservationsBeginDate         *string                    `json:"reservations_begin_date"`
	ReservationsEndDate           *string                    `json:"reservations_end_date"`
	ReservationMinDurationMinutes *int                       `json:"reservation_min_duration_minutes" binding:"omitempty,min=15"`
	ReservationMaxDurationMinutes *int                       `json:"reservation_max_duration_minutes" binding:"omitempty,min=15"`
	AppliedReservationsPerWeek    *int                       `json:"applied_reservations_per_week"    binding:"omitempty,min=1,max=7"`
	SuitableTimeRanges            []SuitableTimeRangeRequest `json:"suitable_time_ranges"             binding:"omitempty,dive"`
	ReservationUnitOptions        []UnitOptionRequest        `json:"reservation_unit_options"         binding:"omitempty,dive"`
}

// SuitableTimeRangeRequest one desired weekly window
type SuitableTimeRangeRequest struct {
	Priority     string `json:"priority"        binding:"required,oneof=PRIMARY SECONDARY"`
	DayOfTheWeek string `json:"day_of_the_week" binding:"required"`
	BeginTime    string `json:"begin_time"      binding:"required"` // "17:00"
	EndTime      string `json:"end_time"        binding:"required"` // "19:00"
}

// UnitOptionRequest one ranked candidate reservation unit
type UnitOptionRequest struct {
	ReservationUnitID string `json:"reservation_unit_id" binding:"required,uuid"`
	PreferredOrder    int    `json:"preferred_order"     binding:"min=0"`
}

// SectionResponse application section details with derived status
type SectionResponse struct {
	ID                            string                      `json:"id"`
	ApplicationID                 string                      `json:"application_id"`
	Name                          string                      `json:"name"`
	NumPersons                    int                         `json:"num_persons"`
	ReservationsBeginDate         string                      `json:"reservations_begin_date"`
	ReservationsEndDate           string                      `json:"reservations_end_date"`
	ReservationMinDurationMinutes int                         `json:"reservation_min_duration_minutes"`
	ReservationMaxDurationMinutes int                         `json:"reservation_max_duration_minutes"`
	AppliedReservationsPerWeek    int                         `json:"applied_reservations_per_week"`
	Status                        string                      `json:"status"`
	SuitableTimeRanges            []SuitableTimeRangeResponse `json:"suitable_time_ranges,omitempty"`
	ReservationUnitOptions        []UnitOptionResponse        `json:"reservation_unit_options,omitempty"`
}

// SuitableTimeRangeResponse one desired weekly window
type SuitableTimeRangeResponse struct {
	ID           string `json:"id"`
	Priority     string `json:"priority"`
	DayOfTheWeek string `json:"day_of_the_week"`
	BeginTime    string `json:"begin_time"`
	EndTime      string `json:"end_time"`
}

// UnitOptionResponse one ranked candidate with its allocation markers
type UnitOptionResponse struct {
	ID                string                  `json:"id"`
	ReservationUnitID string                  `json:"reservation_unit_id"`
	PreferredOrder    int                     `json:"preferred_order"`
	IsLocked          bool                    `json:"is_locked"`
	IsRejected        bool                    `json:"is_rejected"`
	AllocatedSlots    []AllocatedSlotResponse `json:"allocated_time_slots,omitempty"`
}

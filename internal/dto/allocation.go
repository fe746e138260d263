package dto

// ── allocation module DTOs ──

// CreateAllocationRequest allocated slot creation payload
type CreateAllocationRequest struct {
	ReservationUnitOptionID string `json:"reservation_unit_option_id" binding:"required,uuid"`
	DayOfTheWeek            string `json:"day_of_the_week"            binding:"required"`
	BeginTime               string `json:"begin_time"                 binding:"required"`
	EndTime                 string `json:"end_time"                   binding:"required"`
}

// AllocatedSlotResponse allocated slot details
type AllocatedSlotResponse struct {
	ID                      string `json:"id"`
	ReservationUnitOptionID string `json:"reservation_unit_option_id"`
	DayOfTheWeek            string `json:"day_of_the_week"`
	DayOfTheWeekNumber      int    `json:"day_of_the_week_number"`
	BeginTime               string `json:"begin_time"`
	EndTime                 string `json:"end_time"`
	AllocatedTimeOfWeek     string `json:"allocated_time_of_week"`
}

package dto

// ── application round module DTOs ──

// CreateApplicationRoundRequest round creation payload
type CreateApplicationRoundRequest struct {
	Name                       string   `json:"name"                          binding:"required,min=1,max=255"`
	ApplicationPeriodBeginsAt  string   `json:"application_period_begins_at"  binding:"required"` // RFC 3339
	ApplicationPeriodEndsAt    string   `json:"application_period_ends_at"    binding:"required"`
	ReservationPeriodBeginDate string   `json:"reservation_period_begin_date" binding:"required"` // "2026-09-01"
	ReservationPeriodEndDate   string   `json:"reservation_period_end_date"   binding:"required"`
	ReservationUnitIDs         []string `json:"reservation_unit_ids"          binding:"required,min=1,dive,uuid"`
}

// ApplicationRoundResponse round details with derived status
type ApplicationRoundResponse struct {
	ID                         string   `json:"id"`
	Name                       string   `json:"name"`
	Status                     string   `json:"status"`
	ApplicationPeriodBeginsAt  string   `json:"application_period_begins_at"`
	ApplicationPeriodEndsAt    string   `json:"application_period_ends_at"`
	ReservationPeriodBeginDate string   `json:"reservation_period_begin_date"`
	ReservationPeriodEndDate   string   `json:"reservation_period_end_date"`
	HandledAt                  *string  `json:"handled_at,omitempty"`
	SentAt                     *string  `json:"sent_at,omitempty"`
	ReservationUnitIDs         []string `json:"reservation_unit_ids"`
	Version                    int      `json:"version"`
}

// ResetAllocationResponse allocation reset outcome
type ResetAllocationResponse struct {
	DeletedSlots       int `json:"deleted_slots"`
	RevokedAccessCodes int `json:"revoked_access_codes"`
}

package dto

// ── reservation module DTOs ──

// CreateReservationRequest staff reservation creation payload
type CreateReservationRequest struct {
	ReservationUnitID string `json:"reservation_unit_id" binding:"required,uuid"`
	BeginsAt          string `json:"begins_at"           binding:"required"` // RFC 3339
	EndsAt            string `json:"ends_at"             binding:"required"`
	AccessType        string `json:"access_type"         binding:"omitempty,oneof=UNRESTRICTED ACCESS_CODE PHYSICAL_KEY"`
}

// ReservationResponse reservation details
type ReservationResponse struct {
	ID                  string  `json:"id"`
	ReservationSeriesID *string `json:"reservation_series_id,omitempty"`
	ReservationUnitID   string  `json:"reservation_unit_id"`
	UserID              string  `json:"user_id"`
	State               string  `json:"state"`
	AccessType          string  `json:"access_type"`
	BeginsAt            string  `json:"begins_at"`
	EndsAt              string  `json:"ends_at"`
}

// SetReservationStateRequest state transition payload
type SetReservationStateRequest struct {
	State string `json:"state" binding:"required,oneof=CREATED CONFIRMED REQUIRES_HANDLING WAITING_FOR_PAYMENT CANCELLED DENIED"`
}

// AffectingReservationsQuery query parameters for the affecting listing
type AffectingReservationsQuery struct {
	From string `form:"from" binding:"required"` // RFC 3339
	To   string `form:"to"   binding:"required"`
}

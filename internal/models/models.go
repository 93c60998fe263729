package models

// Slot is the occupied window projection returned by the slots query.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookingView is a booking together with its owner's identity summary,
// used by detail and admin list responses.
type BookingView struct {
	Booking
	User *UserSummary `json:"user,omitempty"`
}

package models

import "time"

type Booking struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // canonical "HH:MM"; legacy rows may carry full timestamps
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"` // pending, confirmed, rescheduled, completed, cancelled
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the booking still occupies its slot.
// Cancelled and completed bookings are invisible to conflict checks.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled && b.Status != StatusCompleted
}

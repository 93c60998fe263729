package domain

import (
	"context"
	"time"

	"studiobook/internal/models"
)

type Repository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBookingWithConflictCheck(ctx context.Context, booking *models.Booking) error
	RescheduleBookingWithConflictCheck(ctx context.Context, id string, date time.Time, start, end, notes string) error
	HasOverlap(ctx context.Context, date time.Time, start, end string, excludeID string) (bool, error)
	GetBookingsByDate(ctx context.Context, date time.Time, excludeStatuses []string) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status string) error
	CompletePastBookings(ctx context.Context, before time.Time) (int64, error)
	DeleteBooking(ctx context.Context, id string) error
}

// SlotCache caches the occupied-slots projection per date. A miss returns
// (nil, nil).
type SlotCache interface {
	GetSlots(ctx context.Context, date time.Time) ([]models.Slot, error)
	SetSlots(ctx context.Context, date time.Time, slots []models.Slot) error
	InvalidateDate(ctx context.Context, date time.Time) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Identity resolves principals supplied by the external identity
// collaborator.
type Identity interface {
	ByID(id string) (*models.Principal, bool)
	Summary(id string) *models.UserSummary
}

type BookingService interface {
	Create(ctx context.Context, userID, date, startTime, endTime, notes string) (*models.Booking, error)
	Reschedule(ctx context.Context, bookingID, requesterID string, isAdmin bool, date, startTime, endTime, notes string) (*models.Booking, error)
	Approve(ctx context.Context, bookingID string) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID string, isAdmin bool) error
	Purge(ctx context.Context, bookingID string, isAdmin bool) error
	GetBooking(ctx context.Context, bookingID string) (*models.BookingView, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Booking, error)
	ListAll(ctx context.Context, isAdmin bool) ([]*models.BookingView, error)
	OccupiedSlots(ctx context.Context, date string) ([]models.Slot, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiobook/internal/database"
	"studiobook/internal/domain"
	"studiobook/internal/events"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
	"studiobook/internal/timeslot"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: it validates and normalizes
// requested windows, runs the conflict check and commits state
// transitions. Times cross its boundary only in canonical "HH:MM" form.
type BookingService struct {
	repo     domain.Repository
	cache    domain.SlotCache
	identity domain.Identity
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, cache domain.SlotCache, identity domain.Identity, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		cache:    cache,
		identity: identity,
		eventBus: eventBus,
		logger:   logger,
	}
}

// normalizeRequest validates the raw date/start/end of a mutation request
// and reduces them to canonical values.
func (s *BookingService) normalizeRequest(rawDate, rawStart, rawEnd string) (time.Time, string, string, error) {
	if rawDate == "" || rawStart == "" || rawEnd == "" {
		return time.Time{}, "", "", ErrMissingFields
	}

	date, err := timeslot.NormalizeDate(rawDate)
	if err != nil {
		return time.Time{}, "", "", fmt.Errorf("%w: %q", ErrInvalidDate, rawDate)
	}

	start := timeslot.Normalize(rawStart)
	end := timeslot.Normalize(rawEnd)
	if start == "" || end == "" {
		return time.Time{}, "", "", fmt.Errorf("%w: unrecognized time value", ErrInvalidWindow)
	}

	window := timeslot.WindowOn(date, timeslot.Parse(start), timeslot.Parse(end))
	if !window.Valid() {
		return time.Time{}, "", "", ErrInvalidWindow
	}

	return date, start, end, nil
}

func (s *BookingService) Create(ctx context.Context, userID, rawDate, rawStart, rawEnd, notes string) (*models.Booking, error) {
	date, start, end, err := s.normalizeRequest(rawDate, rawStart, rawEnd)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    models.StatusPending,
		Notes:     notes,
	}

	if err := s.repo.CreateBookingWithConflictCheck(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncSlotConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.invalidateSlots(ctx, date)
	s.publishEvent(events.EventBookingCreated, booking, userID)

	return normalizeBooking(booking), nil
}

func (s *BookingService) Reschedule(ctx context.Context, bookingID, requesterID string, isAdmin bool, rawDate, rawStart, rawEnd, notes string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID && !isAdmin {
		return nil, ErrNotAuthorized
	}

	date, start, end, err := s.normalizeRequest(rawDate, rawStart, rawEnd)
	if err != nil {
		return nil, err
	}

	oldDate := booking.Date
	if err := s.repo.RescheduleBookingWithConflictCheck(ctx, bookingID, date, start, end, notes); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncSlotConflict()
		}
		return nil, err
	}

	s.invalidateSlots(ctx, oldDate)
	s.invalidateSlots(ctx, date)

	updated, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingRescheduled, updated, requesterID)

	return normalizeBooking(updated), nil
}

// Approve confirms a pending booking. The window does not change, so no
// conflict re-check runs.
func (s *BookingService) Approve(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusConfirmed); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingConfirmed, booking, "")

	return normalizeBooking(booking), nil
}

// Cancel soft-cancels a booking: the record stays queryable as history
// and stops occupying its slot.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID string, isAdmin bool) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != requesterID && !isAdmin {
		return ErrNotAuthorized
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.StatusCancelled); err != nil {
		return err
	}

	s.invalidateSlots(ctx, booking.Date)
	booking.Status = models.StatusCancelled
	s.publishEvent(events.EventBookingCancelled, booking, requesterID)

	return nil
}

// Purge hard-deletes a booking record. Admin-only; cancellation history
// normally stays in place, this exists for data removal requests.
func (s *BookingService) Purge(ctx context.Context, bookingID string, isAdmin bool) error {
	if !isAdmin {
		return ErrNotAuthorized
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}

	s.invalidateSlots(ctx, booking.Date)
	s.logger.Info().Str("booking_id", bookingID).Msg("booking purged")

	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.view(booking), nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	bookings, err := s.repo.GetUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}

	normalized := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		normalized = append(normalized, normalizeBooking(b))
	}
	return normalized, nil
}

func (s *BookingService) ListAll(ctx context.Context, isAdmin bool) ([]*models.BookingView, error) {
	if !isAdmin {
		return nil, ErrNotAuthorized
	}

	bookings, err := s.repo.GetAllBookings(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, s.view(b))
	}
	return views, nil
}

// OccupiedSlots returns the active windows on a date, read-through from
// the slot cache. Cache failures degrade to the database.
func (s *BookingService) OccupiedSlots(ctx context.Context, rawDate string) ([]models.Slot, error) {
	if rawDate == "" {
		return nil, ErrMissingFields
	}
	date, err := timeslot.NormalizeDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, rawDate)
	}

	if s.cache != nil {
		if slots, err := s.cache.GetSlots(ctx, date); err != nil {
			s.logger.Warn().Err(err).Msg("slot cache read failed")
		} else if slots != nil {
			return slots, nil
		}
	}

	bookings, err := s.repo.GetBookingsByDate(ctx, date, models.InactiveStatuses)
	if err != nil {
		return nil, err
	}

	slots := make([]models.Slot, 0, len(bookings))
	for _, b := range bookings {
		start := timeslot.Normalize(b.StartTime)
		end := timeslot.Normalize(b.EndTime)
		if start == "" || end == "" {
			// Unreadable legacy row; it cannot conflict either.
			continue
		}
		slots = append(slots, models.Slot{StartTime: start, EndTime: end})
	}

	if s.cache != nil {
		if err := s.cache.SetSlots(ctx, date, slots); err != nil {
			s.logger.Warn().Err(err).Msg("slot cache write failed")
		}
	}

	return slots, nil
}

func (s *BookingService) view(booking *models.Booking) *models.BookingView {
	view := &models.BookingView{Booking: *normalizeBooking(booking)}
	if s.identity != nil {
		view.User = s.identity.Summary(booking.UserID)
	}
	return view
}

// normalizeBooking canonicalizes stored time values for external
// consumption. Reads never expose the legacy timestamp shape.
func normalizeBooking(b *models.Booking) *models.Booking {
	out := *b
	if start := timeslot.Normalize(b.StartTime); start != "" {
		out.StartTime = start
	}
	if end := timeslot.Normalize(b.EndTime); end != "" {
		out.EndTime = end
	}
	out.Date = timeslot.DateOnly(b.Date)
	return &out
}

func (s *BookingService) invalidateSlots(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDate(ctx, date); err != nil {
		s.logger.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("slot cache invalidation failed")
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Date:      booking.Date,
		StartTime: timeslot.Normalize(booking.StartTime),
		EndTime:   timeslot.Normalize(booking.EndTime),
		Status:    booking.Status,
		Notes:     booking.Notes,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

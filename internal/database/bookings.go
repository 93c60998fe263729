package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"studiobook/internal/models"
	"studiobook/internal/timeslot"
)

const bookingColumns = `id, user_id, date, start_time, end_time, status, notes, created_at, updated_at`

const dateLayout = "2006-01-02"

type rowQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// HasOverlap implements the conflict check: does any active booking on the
// date overlap the half-open [start, end) window. excludeID skips the
// booking being rescheduled.
func (db *DB) HasOverlap(ctx context.Context, date time.Time, start, end string, excludeID string) (bool, error) {
	candidate := timeslot.WindowOn(date, timeslot.Parse(start), timeslot.Parse(end))
	return hasOverlap(ctx, db.db, date, candidate, excludeID)
}

func hasOverlap(ctx context.Context, q rowQueryer, date time.Time, candidate timeslot.Window, excludeID string) (bool, error) {
	query := `SELECT start_time, end_time FROM bookings
              WHERE date = ? AND status NOT IN (?, ?) AND id != ?`
	rows, err := q.QueryContext(ctx, query,
		date.Format(dateLayout), models.StatusCancelled, models.StatusCompleted, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to query same-day bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawStart, rawEnd string
		if err := rows.Scan(&rawStart, &rawEnd); err != nil {
			return false, fmt.Errorf("failed to scan booking window: %w", err)
		}

		// Legacy rows may hold timestamps; only their time-of-day matters,
		// anchored to the date under test.
		existing := timeslot.WindowOn(date, timeslot.Parse(rawStart), timeslot.Parse(rawEnd))
		if candidate.Overlaps(existing) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// CreateBooking inserts a booking without a conflict check. Callers that
// need the no-double-booking invariant use CreateBookingWithConflictCheck.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.Date.Format(dateLayout),
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// CreateBookingWithConflictCheck runs the overlap check and the insert in
// one transaction so two concurrent requests for the same window cannot
// both pass the check.
func (db *DB) CreateBookingWithConflictCheck(ctx context.Context, booking *models.Booking) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	candidate := timeslot.WindowOn(booking.Date,
		timeslot.Parse(booking.StartTime), timeslot.Parse(booking.EndTime))
	taken, err := hasOverlap(ctx, tx, booking.Date, candidate, "")
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	now := time.Now()
	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.Date.Format(dateLayout),
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return tx.Commit()
}

// RescheduleBookingWithConflictCheck moves a booking to a new window,
// excluding the booking itself from the overlap check, and marks it
// rescheduled. Check and update share a transaction.
func (db *DB) RescheduleBookingWithConflictCheck(ctx context.Context, id string, date time.Time, start, end, notes string) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	candidate := timeslot.WindowOn(date, timeslot.Parse(start), timeslot.Parse(end))
	taken, err := hasOverlap(ctx, tx, date, candidate, id)
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	query := `UPDATE bookings
              SET date = ?, start_time = ?, end_time = ?, notes = ?, status = ?, updated_at = ?
              WHERE id = ?`
	result, err := tx.ExecContext(ctx, query,
		date.Format(dateLayout), start, end, notes, models.StatusRescheduled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	row := db.db.QueryRowContext(ctx, query, id)

	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBookingsByDate returns bookings on the date, skipping the given
// statuses. Pass nil to include everything.
func (db *DB) GetBookingsByDate(ctx context.Context, date time.Time, excludeStatuses []string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date = ?`
	args := []any{date.Format(dateLayout)}
	if len(excludeStatuses) > 0 {
		query += ` AND status NOT IN (?` + strings.Repeat(", ?", len(excludeStatuses)-1) + `)`
		for _, s := range excludeStatuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY start_time ASC`

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, userID)
}

func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return db.queryBookings(ctx, query)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date >= ? AND date <= ? ORDER BY date ASC, start_time ASC`
	return db.queryBookings(ctx, query, start.Format(dateLayout), end.Format(dateLayout))
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id string, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookingTimes rewrites the stored start/end values without
// touching the status. Used by the time backfill script.
func (db *DB) UpdateBookingTimes(ctx context.Context, id string, start, end string) error {
	query := `UPDATE bookings SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`
	result, err := db.db.ExecContext(ctx, query, start, end, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking times: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletePastBookings bulk-transitions bookings dated strictly before
// the cutoff to completed. Cancelled records keep their history; both
// terminal statuses are left alone, so repeated runs are no-ops. Returns
// the number of rows transitioned.
func (db *DB) CompletePastBookings(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE bookings SET status = ?, updated_at = ?
              WHERE date < ? AND status NOT IN (?, ?)`
	result, err := db.db.ExecContext(ctx, query,
		models.StatusCompleted, time.Now(), before.Format(dateLayout),
		models.StatusCompleted, models.StatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("failed to complete past bookings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count completed bookings: %w", err)
	}
	return rows, nil
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var dateStr string
	err := row.Scan(
		&booking.ID, &booking.UserID, &dateStr, &booking.StartTime, &booking.EndTime,
		&booking.Status, &booking.Notes, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Date, err = timeslot.NormalizeDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return &booking, nil
}

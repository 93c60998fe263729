package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"studiobook/internal/database"
	"studiobook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func setupSweepTest(t *testing.T) (*SweepWorker, *database.DB) {
	t.Helper()
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := fixedClock{now: time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)}
	w := NewSweepWorker(db, clock, time.Minute, RetryPolicy{}, &logger)
	return w, db
}

func seedBooking(t *testing.T, db *database.DB, date time.Time, status string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Date:      date,
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    status,
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestSweepCompletesPastBookings(t *testing.T) {
	w, db := setupSweepTest(t)
	ctx := context.Background()

	yesterday := seedBooking(t, db, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), models.StatusConfirmed)
	today := seedBooking(t, db, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), models.StatusPending)

	n, err := w.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := db.GetBooking(ctx, yesterday.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	got, err = db.GetBooking(ctx, today.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	w, db := setupSweepTest(t)
	ctx := context.Background()

	b := seedBooking(t, db, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), models.StatusRescheduled)

	n, err := w.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = w.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestSweepLeavesCancelledHistory(t *testing.T) {
	// Cancelled is terminal; rewriting it to completed would erase the
	// cancellation from history.
	w, db := setupSweepTest(t)
	ctx := context.Background()

	b := seedBooking(t, db, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), models.StatusCancelled)

	n, err := w.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestRunStopsOnCancel(t *testing.T) {
	w, _ := setupSweepTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep worker did not stop after context cancellation")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4)) // clamped
	assert.Equal(t, time.Second, p.NextDelay(0))   // floor

	var zero RetryPolicy
	assert.Equal(t, time.Second, zero.NextDelay(1))
}

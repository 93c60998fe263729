package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/database"
	"studiobook/internal/events"
	"studiobook/internal/models"
	"studiobook/internal/repository"
	"studiobook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrincipals() []models.Principal {
	return []models.Principal{
		{ID: "user-1", Name: "Alice", Email: "alice@example.com"},
		{ID: "user-2", Name: "Bob", Email: "bob@example.com"},
		{ID: "admin-1", Name: "Producer", Email: "producer@example.com", IsAdmin: true},
	}
}

func newTestHTTPServer(t *testing.T) *HTTPServer {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	identity := service.NewIdentityService(testPrincipals())
	cache := repository.NewMemorySlotCache(time.Minute)
	svc := service.NewBookingService(db, cache, identity, events.NewEventBus(), &logger)
	exporter := NewExporter(db, identity, t.TempDir(), &logger)

	cfg := config.APIConfig{
		HTTP: config.APIHTTPConfig{Port: 0},
	}
	return NewHTTPServer(cfg, svc, exporter, identity, &logger)
}

func doJSON(t *testing.T, handler http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBooking(t *testing.T, rec *httptest.ResponseRecorder) models.Booking {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Success)
	return body.Booking
}

func createBooking(t *testing.T, handler http.Handler, userID, date, start, end string) models.Booking {
	t.Helper()
	payload := fmt.Sprintf(`{"date":%q,"start_time":%q,"end_time":%q,"notes":"vocal session"}`, date, start, end)
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/bookings", userID, payload)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeBooking(t, rec)
}

func TestCreateBookingNormalizes(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	payload := `{"date":"2026-03-10T00:00:00.000Z","start_time":"10:00:00","end_time":"11:30","notes":"mixing"}`
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "user-1", payload)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	booking := decodeBooking(t, rec)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "user-1", booking.UserID)
	assert.Equal(t, "10:00", booking.StartTime)
	assert.Equal(t, "11:30", booking.EndTime)
	assert.Equal(t, models.StatusPending, booking.Status)
}

func TestCreateBookingConflict(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")

	payload := `{"date":"2026-03-10","start_time":"10:30","end_time":"11:30"}`
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "user-2", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already booked")

	// Граница окна не считается пересечением.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/bookings",
		"user-2", `{"date":"2026-03-10","start_time":"11:00","end_time":"12:00"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	tests := []struct {
		name    string
		payload string
	}{
		{"missing fields", `{"date":"2026-03-10"}`},
		{"bad date", `{"date":"not-a-date","start_time":"10:00","end_time":"11:00"}`},
		{"inverted window", `{"date":"2026-03-10","start_time":"12:00","end_time":"11:00"}`},
		{"zero width window", `{"date":"2026-03-10","start_time":"10:00","end_time":"10:00"}`},
		{"bad time", `{"date":"2026-03-10","start_time":"25:99","end_time":"11:00"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "user-1", tt.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetBookingNotFound(t *testing.T) {
	srv := newTestHTTPServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/bookings/does-not-exist", "user-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRescheduleAuthorization(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	booking := createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")
	payload := `{"date":"2026-03-11","start_time":"10:00","end_time":"11:00"}`

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/bookings/"+booking.ID, "user-2", payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/bookings/"+booking.ID, "user-1", payload)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	updated := decodeBooking(t, rec)
	assert.Equal(t, models.StatusRescheduled, updated.Status)
	assert.Equal(t, "2026-03-11", updated.Date.Format("2006-01-02"))
}

func TestRescheduleConflict(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	first := createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")
	createBooking(t, handler, "user-2", "2026-03-10", "11:00", "12:00")

	payload := `{"date":"2026-03-10","start_time":"11:30","end_time":"12:30"}`
	rec := doJSON(t, handler, http.MethodPut, "/api/v1/bookings/"+first.ID, "user-1", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveRequiresAdmin(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	booking := createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/approve", "user-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/approve", "admin-1", "")
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	approved := decodeBooking(t, rec)
	assert.Equal(t, models.StatusConfirmed, approved.Status)
}

func TestCancelFreesSlot(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	booking := createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/bookings/"+booking.ID, "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Отмененная бронь не занимает слот.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/slots?date=2026-03-10", "user-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var slots struct {
		OccupiedSlots []models.Slot `json:"occupied_slots"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&slots))
	assert.Empty(t, slots.OccupiedSlots)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "user-2",
		`{"date":"2026-03-10","start_time":"10:00","end_time":"11:00"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestPurgeRequiresAdmin(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	booking := createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/bookings/"+booking.ID+"?purge=1", "user-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/bookings/"+booking.ID+"?purge=1", "admin-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/bookings/"+booking.ID, "admin-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAllAdminOnly(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")
	createBooking(t, handler, "user-2", "2026-03-11", "12:00", "13:00")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/bookings", "user-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/bookings", "admin-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count    int                   `json:"count"`
		Bookings []*models.BookingView `json:"bookings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	for _, view := range body.Bookings {
		require.NotNil(t, view.User)
		assert.NotEmpty(t, view.User.Name)
	}
}

func TestUserBookingsSelfOrAdmin(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/users/user-1/bookings", "user-2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for _, viewer := range []string{"user-1", "admin-1"} {
		rec = doJSON(t, handler, http.MethodGet, "/api/v1/users/user-1/bookings", viewer, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 1, body.Count)
	}
}

func TestSlotsRequiresDate(t *testing.T) {
	srv := newTestHTTPServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/slots", "user-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportAdminOnly(t *testing.T) {
	srv := newTestHTTPServer(t)
	handler := srv.Handler()

	createBooking(t, handler, "user-1", "2026-03-10", "10:00", "11:00")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/bookings/export", "user-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodGet,
		"/api/v1/bookings/export?from=2026-03-01&to=2026-03-31", "admin-1", "")
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "export_2026-03-01_to_2026-03-31.xlsx")
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestHTTPServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPatch, "/api/v1/bookings", "user-1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	srv := newTestHTTPServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/slots?date=2026-03-10", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

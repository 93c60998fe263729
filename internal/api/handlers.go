package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"studiobook/internal/database"
	"studiobook/internal/models"
	"studiobook/internal/service"
)

type bookingRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body bookingRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		booking, err := s.svc.Create(r.Context(), principal.ID, body.Date, body.StartTime, body.EndTime, body.Notes)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Booking created successfully.",
			"booking": booking,
		})

	case http.MethodGet:
		views, err := s.svc.ListAll(r.Context(), principal.IsAdmin)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"count":    len(views),
			"bookings": views,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	if id, found := strings.CutSuffix(rest, "/approve"); found {
		s.handleApprove(w, r, principal, id)
		return
	}

	id := strings.TrimSpace(rest)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.svc.GetBooking(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "booking": view})

	case http.MethodPut:
		var body bookingRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		booking, err := s.svc.Reschedule(r.Context(), id, principal.ID, principal.IsAdmin,
			body.Date, body.StartTime, body.EndTime, body.Notes)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Booking rescheduled successfully.",
			"booking": booking,
		})

	case http.MethodDelete:
		var err error
		if r.URL.Query().Get("purge") == "1" {
			err = s.svc.Purge(r.Context(), id, principal.IsAdmin)
		} else {
			err = s.svc.Cancel(r.Context(), id, principal.ID, principal.IsAdmin)
		}
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Booking cancelled successfully."})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleApprove(w http.ResponseWriter, r *http.Request, principal *models.Principal, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !principal.IsAdmin {
		writeError(w, http.StatusForbidden, "only admins can approve bookings")
		return
	}

	booking, err := s.svc.Approve(r.Context(), strings.TrimSpace(id))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Successfully confirmed booking.",
		"booking": booking,
	})
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	const prefix = "/api/v1/users/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	userID, found := strings.CutSuffix(rest, "/bookings")
	if !found || userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if userID != principal.ID && !principal.IsAdmin {
		writeError(w, http.StatusForbidden, "not authorized to view these bookings")
		return
	}

	bookings, err := s.svc.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(bookings),
		"bookings": bookings,
	})
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if _, ok := PrincipalFrom(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	slots, err := s.svc.OccupiedSlots(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"occupied_slots": slots,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeServiceError maps engine error kinds to HTTP status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "This time slot is already booked. Please choose a different time.")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Booking not found.")
	case errors.Is(err, service.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

package service

import "errors"

var (
	// ErrMissingFields means a required field (date, start or end time)
	// was absent from the request.
	ErrMissingFields = errors.New("date, start time and end time are required")

	// ErrInvalidDate means the date value could not be interpreted.
	ErrInvalidDate = errors.New("invalid date format")

	// ErrInvalidWindow means the requested window is malformed, inverted
	// or zero-length.
	ErrInvalidWindow = errors.New("start time must be before end time")

	// ErrNotAuthorized means the requester neither owns the booking nor
	// holds admin rights.
	ErrNotAuthorized = errors.New("not authorized to modify this booking")
)

package database

import "errors"

var (
	// ErrNotFound means the referenced booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrSlotTaken means the requested window overlaps an active booking.
	ErrSlotTaken = errors.New("slot already booked")
)

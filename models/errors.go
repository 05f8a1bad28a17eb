package models

import "errors"

// Errors every BookingStore implementation reports with.
var (
	ErrBookingNotFound = errors.New("booking_not_found")
	// ErrSerialization means the database aborted a transaction because a
	// concurrent one touched the same rows.
	ErrSerialization = errors.New("serialization_failure")
)

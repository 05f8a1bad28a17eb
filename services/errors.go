package services

import (
	"errors"
	"fmt"

	"room-booking/models"
)

var (
	ErrPastDate             = errors.New("past_date")
	ErrInvalidDuration      = errors.New("invalid_duration")
	ErrOutsideBusinessHours = errors.New("outside_business_hours")
	ErrUnknownRoom          = errors.New("unknown_room")
	ErrConflict             = errors.New("conflict")
	ErrStorageUnavailable   = errors.New("storage_unavailable")
	ErrBookingNotFound      = errors.New("booking_not_found")
)

// RejectionError is a validation failure the caller has to fix before
// resubmitting. Reason is one of the sentinel errors above.
type RejectionError struct {
	Reason    error
	Message   string
	Conflicts []models.Booking
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

func reject(reason error, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps any failure of the storage collaborator. It matches
// both ErrStorageUnavailable and the underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageUnavailable, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

package services

import (
	"context"
	"time"

	"room-booking/models"
)

// BookingStore is the persistence collaborator. repository.BookingRepo and
// repository.MemoryRepo implement it.
type BookingStore interface {
	// CreateWithNoOverlap passes the room's booked rows starting in
	// [from, to) to check and inserts b only if check returns nil, atomically.
	CreateWithNoOverlap(ctx context.Context, b *models.Booking, from, to time.Time, check func(sameDay []models.Booking) error) error
	Cancel(ctx context.Context, id uint) error
	ListBooked(ctx context.Context, from, to time.Time, room string) ([]models.Booking, error)
	ListStartedBefore(ctx context.Context, t time.Time, limit int) ([]models.Booking, error)
	ByID(ctx context.Context, id uint) (*models.Booking, error)
}

package models

import (
	"time"
)

// BookingStatus is the two-state lifecycle of a booking row. Rows are never
// physically deleted; cancelling only flips the status.
type BookingStatus string

const (
	StatusBooked    BookingStatus = "booked"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the row still occupies its room.
func (s BookingStatus) Active() bool {
	return s == StatusBooked
}

type Booking struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Room        string    `gorm:"column:room;size:32;not null;index:idx_bookings_room_start,priority:1" json:"room"`
	StartTS     time.Time `gorm:"column:start_ts;not null;index:idx_bookings_room_start,priority:2" json:"start"`
	EndTS       time.Time `gorm:"column:end_ts;not null" json:"end"`
	CleanEndTS  time.Time `gorm:"column:clean_end_ts;not null" json:"clean_end"`
	DurationMin int       `gorm:"column:duration_min;not null" json:"duration_min"`

	Customer *string `gorm:"column:customer;type:text" json:"customer,omitempty"`
	Note     *string `gorm:"column:note;type:text" json:"note,omitempty"`

	Status    BookingStatus `gorm:"column:status;size:16;default:booked" json:"status"`
	CreatedAt time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Occupies returns the half-open interval [start, cleanEnd) the booking holds
// its room for, cleaning included.
func (b Booking) Occupies() (time.Time, time.Time) {
	return b.StartTS, b.CleanEndTS
}

// services/booking_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"room-booking/models"
	"room-booking/schedule"
)

// BookingService validates and records bookings and cancellations.
type BookingService struct {
	store  BookingStore
	policy schedule.Policy
	clock  schedule.Clock
}

func NewBookingService(store BookingStore, policy schedule.Policy, clock schedule.Clock) *BookingService {
	if clock == nil {
		clock = schedule.RealClock{}
	}
	return &BookingService{store: store, policy: policy, clock: clock}
}

type CreateBookingInput struct {
	Room        string
	Start       time.Time
	DurationMin int
	Customer    string
	Note        string
}

// CreateBooking runs the checks in a fixed order and stops at the first
// failure: past date, duration whitelist, business hours, room, overlap.
// The overlap check and the insert happen in one storage transaction.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	p := s.policy
	now := s.clock.Now().In(p.Loc())
	start := in.Start.In(p.Loc())
	log := logrus.WithFields(logrus.Fields{
		"room":         in.Room,
		"start":        start.Format(time.RFC3339),
		"duration_min": in.DurationMin,
	})

	if p.DayStart(start).Before(p.DayStart(now)) {
		return nil, s.rejected(log, reject(ErrPastDate, "booking date must be today or later"))
	}
	if !p.IsAllowedDuration(in.DurationMin) {
		return nil, s.rejected(log, reject(ErrInvalidDuration,
			"duration %d minutes is not allowed, choose one of %v", in.DurationMin, p.AllowedDurations()))
	}
	span := p.Span(start, in.DurationMin)
	if !p.WithinBusinessHours(span.Start, span.CleanEnd) {
		open, closing := p.BusinessWindow()
		return nil, s.rejected(log, reject(ErrOutsideBusinessHours,
			"booking must start at or after %s and cleaning must finish by %s on the same day",
			schedule.FormatClock(open), schedule.FormatClock(closing)))
	}
	if !p.HasRoom(in.Room) {
		return nil, s.rejected(log, reject(ErrUnknownRoom, "room %q does not exist", in.Room))
	}

	b := &models.Booking{
		Room:        in.Room,
		StartTS:     span.Start,
		EndTS:       span.End,
		CleanEndTS:  span.CleanEnd,
		DurationMin: in.DurationMin,
		Customer:    nullableText(in.Customer),
		Note:        nullableText(in.Note),
		Status:      models.StatusBooked,
		CreatedAt:   now,
	}

	dayStart := p.DayStart(start)
	err := s.store.CreateWithNoOverlap(ctx, b, dayStart, dayStart.AddDate(0, 0, 1), func(sameDay []models.Booking) error {
		warnIfSpansMidnight(sameDay)
		if hits := schedule.FilterConflicts(sameDay, span, nil); len(hits) > 0 {
			rej := reject(ErrConflict, "overlaps an existing booking or its cleaning time")
			rej.Conflicts = hits
			return rej
		}
		return nil
	})
	if err != nil {
		var rej *RejectionError
		if errors.As(err, &rej) {
			return nil, s.rejected(log, rej)
		}
		if errors.Is(err, models.ErrSerialization) {
			return nil, s.rejected(log, reject(ErrConflict,
				"another booking for room %s was made at the same time, reload and try again", in.Room))
		}
		log.WithError(err).Error("booking insert failed")
		return nil, storageErr("create booking", err)
	}

	log.WithField("id", b.ID).Info("booking created")
	return b, nil
}

// CancelBooking marks the booking cancelled. Cancelling twice, or cancelling
// an id that does not exist, succeeds without doing anything more.
func (s *BookingService) CancelBooking(ctx context.Context, id uint) error {
	if err := s.store.Cancel(ctx, id); err != nil {
		logrus.WithError(err).WithField("id", id).Error("booking cancel failed")
		return storageErr("cancel booking", err)
	}
	logrus.WithField("id", id).Info("booking cancelled")
	return nil
}

func (s *BookingService) rejected(log *logrus.Entry, rej *RejectionError) error {
	log.WithField("reason", rej.Reason.Error()).Info("booking rejected")
	return rej
}

func warnIfSpansMidnight(rows []models.Booking) {
	for _, b := range rows {
		if schedule.SpansMidnight(b.StartTS, b.CleanEndTS) {
			logrus.WithFields(logrus.Fields{
				"id":        b.ID,
				"start":     b.StartTS,
				"clean_end": b.CleanEndTS,
			}).Warn("stored booking crosses midnight, conflict search by start date may miss it")
		}
	}
}

func nullableText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

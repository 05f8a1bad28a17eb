package services

import (
	"context"
	"errors"
	"time"

	"room-booking/models"
	"room-booking/schedule"
)

const (
	HistoryLimit = 200
	upcomingDays = 3 * 365
)

// QueryService answers read-only questions about the schedule. Every range
// query selects by start timestamp, not by overlap with the range.
type QueryService struct {
	store  BookingStore
	policy schedule.Policy
	clock  schedule.Clock
}

func NewQueryService(store BookingStore, policy schedule.Policy, clock schedule.Clock) *QueryService {
	if clock == nil {
		clock = schedule.RealClock{}
	}
	return &QueryService{store: store, policy: policy, clock: clock}
}

// BookingsInRange returns booked rows with start in [start, end). An empty
// room means every room.
func (q *QueryService) BookingsInRange(ctx context.Context, start, end time.Time, room string) ([]models.Booking, error) {
	rows, err := q.store.ListBooked(ctx, start, end, room)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	if rows == nil {
		rows = []models.Booking{}
	}
	return rows, nil
}

func (q *QueryService) BookingsOnDay(ctx context.Context, day time.Time, room string) ([]models.Booking, error) {
	from := q.policy.DayStart(day)
	return q.BookingsInRange(ctx, from, from.AddDate(0, 0, 1), room)
}

func (q *QueryService) UpcomingBookings(ctx context.Context, room string) ([]models.Booking, error) {
	today := q.today()
	return q.BookingsInRange(ctx, today, today.AddDate(0, 0, upcomingDays), room)
}

// HistoryBeforeToday lists bookings of any status that started before
// today, newest first, capped at HistoryLimit rows.
func (q *QueryService) HistoryBeforeToday(ctx context.Context) ([]models.Booking, error) {
	rows, err := q.store.ListStartedBefore(ctx, q.today(), HistoryLimit)
	if err != nil {
		return nil, storageErr("list history", err)
	}
	if rows == nil {
		rows = []models.Booking{}
	}
	return rows, nil
}

func (q *QueryService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	b, err := q.store.ByID(ctx, id)
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, storageErr("get booking", err)
	}
	return b, nil
}

// FindConflicts fetches the room's booked rows starting on the candidate's
// date and keeps those whose [start, cleanEnd) overlaps the candidate's.
// excludeID skips one booking, for re-validating a stored row.
func (q *QueryService) FindConflicts(ctx context.Context, room string, start, cleanEnd time.Time, excludeID *uint) ([]models.Booking, error) {
	sameDay, err := q.BookingsOnDay(ctx, start, room)
	if err != nil {
		return nil, err
	}
	warnIfSpansMidnight(sameDay)
	hits := schedule.FilterConflicts(sameDay, schedule.Span{Start: start, End: cleanEnd, CleanEnd: cleanEnd}, excludeID)
	if hits == nil {
		hits = []models.Booking{}
	}
	return hits, nil
}

type SegmentKind string

const (
	SegmentBooking  SegmentKind = "booking"
	SegmentCleaning SegmentKind = "cleaning"
)

type TimelineSegment struct {
	BookingID uint        `json:"booking_id"`
	Room      string      `json:"room"`
	Kind      SegmentKind `json:"kind"`
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	Customer  *string     `json:"customer,omitempty"`
	Note      *string     `json:"note,omitempty"`
}

type DayTimeline struct {
	Day         string            `json:"day"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	Segments    []TimelineSegment `json:"segments"`
}

// DayTimeline splits each booking of the day into its occupied segment and
// its cleaning segment, framed by that day's business window.
func (q *QueryService) DayTimeline(ctx context.Context, day time.Time) (*DayTimeline, error) {
	rows, err := q.BookingsOnDay(ctx, day, "")
	if err != nil {
		return nil, err
	}
	open, closing := q.policy.BusinessWindow()
	tl := &DayTimeline{
		Day:         q.policy.DayStart(day).Format(time.DateOnly),
		WindowStart: q.policy.At(day, open),
		WindowEnd:   q.policy.At(day, closing),
		Segments:    make([]TimelineSegment, 0, 2*len(rows)),
	}
	for _, b := range rows {
		tl.Segments = append(tl.Segments,
			TimelineSegment{BookingID: b.ID, Room: b.Room, Kind: SegmentBooking, Start: b.StartTS, End: b.EndTS, Customer: b.Customer, Note: b.Note},
			TimelineSegment{BookingID: b.ID, Room: b.Room, Kind: SegmentCleaning, Start: b.EndTS, End: b.CleanEndTS},
		)
	}
	return tl, nil
}

func (q *QueryService) today() time.Time {
	return q.policy.DayStart(q.clock.Now())
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-booking/models"
	"room-booking/repository"
	"room-booking/schedule"
)

var testNow = time.Date(2030, time.May, 10, 9, 0, 0, 0, time.UTC)

func testPolicy() schedule.Policy {
	p := schedule.DefaultPolicy()
	p.Location = time.UTC
	return p
}

// at returns hh:mm on the day `days` after testNow's date.
func at(days, hh, mm int) time.Time {
	return time.Date(2030, time.May, 10+days, hh, mm, 0, 0, time.UTC)
}

type fixture struct {
	repo     *repository.MemoryRepo
	bookings *BookingService
	queries  *QueryService
}

func newFixture(now time.Time) fixture {
	repo := repository.NewMemoryRepo()
	clock := schedule.FixedClock{At: now}
	return fixture{
		repo:     repo,
		bookings: NewBookingService(repo, testPolicy(), clock),
		queries:  NewQueryService(repo, testPolicy(), clock),
	}
}

func (f fixture) create(t *testing.T, room string, start time.Time, minutes int) *models.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), CreateBookingInput{
		Room:        room,
		Start:       start,
		DurationMin: minutes,
		Customer:    gofakeit.Name(),
	})
	require.NoError(t, err)
	return b
}

func requireRejected(t *testing.T, err error, reason error) *RejectionError {
	t.Helper()
	require.Error(t, err)
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.ErrorIs(t, err, reason)
	assert.NotEmpty(t, rej.Message)
	return rej
}

func TestCreateBooking_ComputesTimeline(t *testing.T) {
	f := newFixture(testNow)

	b := f.create(t, "101", at(1, 12, 0), 60)

	assert.NotZero(t, b.ID)
	assert.Equal(t, at(1, 12, 0), b.StartTS)
	assert.Equal(t, at(1, 13, 0), b.EndTS)
	assert.Equal(t, at(1, 13, 30), b.CleanEndTS)
	assert.Equal(t, 60, b.DurationMin)
	assert.Equal(t, models.StatusBooked, b.Status)
	assert.Equal(t, testNow, b.CreatedAt)
}

func TestCreateBooking_CleaningBufferScenario(t *testing.T) {
	f := newFixture(testNow)
	ctx := context.Background()

	first := f.create(t, "101", at(1, 12, 0), 60)

	_, err := f.bookings.CreateBooking(ctx, CreateBookingInput{Room: "101", Start: at(1, 13, 0), DurationMin: 30})
	rej := requireRejected(t, err, ErrConflict)
	require.Len(t, rej.Conflicts, 1)
	assert.Equal(t, first.ID, rej.Conflicts[0].ID)

	// starts the minute cleaning ends
	second := f.create(t, "101", at(1, 13, 30), 30)
	assert.Equal(t, at(1, 14, 30), second.CleanEndTS)

	rows, err := f.queries.BookingsOnDay(ctx, at(1, 0, 0), "101")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestCreateBooking_OtherRoomDoesNotConflict(t *testing.T) {
	f := newFixture(testNow)

	f.create(t, "101", at(1, 12, 0), 60)
	b := f.create(t, "102", at(1, 12, 0), 60)

	assert.Equal(t, "102", b.Room)
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		in     CreateBookingInput
		reason error
	}{
		{
			name:   "yesterday",
			in:     CreateBookingInput{Room: "101", Start: at(-1, 12, 0), DurationMin: 60},
			reason: ErrPastDate,
		},
		{
			name:   "past date is checked before everything else",
			in:     CreateBookingInput{Room: "999", Start: at(-1, 3, 0), DurationMin: 0},
			reason: ErrPastDate,
		},
		{
			name:   "duration not in the whitelist",
			in:     CreateBookingInput{Room: "101", Start: at(1, 12, 0), DurationMin: 50},
			reason: ErrInvalidDuration,
		},
		{
			name:   "zero duration is checked before business hours",
			in:     CreateBookingInput{Room: "101", Start: at(1, 20, 0), DurationMin: 0},
			reason: ErrInvalidDuration,
		},
		{
			name:   "cleaning would end after closing",
			in:     CreateBookingInput{Room: "101", Start: at(1, 19, 45), DurationMin: 60},
			reason: ErrOutsideBusinessHours,
		},
		{
			name:   "before opening",
			in:     CreateBookingInput{Room: "101", Start: at(1, 11, 30), DurationMin: 30},
			reason: ErrOutsideBusinessHours,
		},
		{
			name:   "unknown room",
			in:     CreateBookingInput{Room: "999", Start: at(1, 12, 0), DurationMin: 30},
			reason: ErrUnknownRoom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(testNow)
			b, err := f.bookings.CreateBooking(context.Background(), tt.in)
			assert.Nil(t, b)
			requireRejected(t, err, tt.reason)

			rows, err := f.queries.BookingsInRange(context.Background(), at(-2, 0, 0), at(3, 0, 0), "")
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestCreateBooking_TodayIsAllowedAfterItsStartTime(t *testing.T) {
	// only the calendar date is compared with now
	f := newFixture(at(0, 15, 0))

	b := f.create(t, "101", at(0, 12, 0), 30)
	assert.Equal(t, at(0, 12, 0), b.StartTS)
}

func TestCreateBooking_CleaningEndingAtClosingIsAccepted(t *testing.T) {
	f := newFixture(testNow)

	b := f.create(t, "101", at(1, 18, 30), 60)
	assert.Equal(t, at(1, 20, 0), b.CleanEndTS)
}

func TestCreateBooking_CustomerAndNote(t *testing.T) {
	f := newFixture(testNow)
	ctx := context.Background()
	name := gofakeit.Name()

	b, err := f.bookings.CreateBooking(ctx, CreateBookingInput{
		Room:        "101",
		Start:       at(1, 12, 0),
		DurationMin: 30,
		Customer:    "  " + name + " ",
		Note:        "   ",
	})
	require.NoError(t, err)
	require.NotNil(t, b.Customer)
	assert.Equal(t, name, *b.Customer)
	assert.Nil(t, b.Note)

	stored, err := f.queries.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, name, *stored.Customer)
	assert.Nil(t, stored.Note)
}

func TestCancelBooking_FreesTheSlotAndIsIdempotent(t *testing.T) {
	f := newFixture(testNow)
	ctx := context.Background()

	b := f.create(t, "101", at(1, 12, 0), 60)

	require.NoError(t, f.bookings.CancelBooking(ctx, b.ID))
	require.NoError(t, f.bookings.CancelBooking(ctx, b.ID))
	require.NoError(t, f.bookings.CancelBooking(ctx, 4242))

	stored, err := f.queries.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	rows, err := f.queries.BookingsOnDay(ctx, at(1, 0, 0), "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	again := f.create(t, "101", at(1, 12, 0), 60)
	assert.NotEqual(t, b.ID, again.ID)
}

func TestCreateBooking_ConcurrentRequestsForOneSlot(t *testing.T) {
	f := newFixture(testNow)
	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(context.Background(), CreateBookingInput{
				Room:        "101",
				Start:       at(1, 14, 0),
				DurationMin: 90,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	rows, err := f.queries.BookingsOnDay(context.Background(), at(1, 0, 0), "101")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (s failingStore) CreateWithNoOverlap(context.Context, *models.Booking, time.Time, time.Time, func([]models.Booking) error) error {
	return s.err
}

func (s failingStore) Cancel(context.Context, uint) error { return s.err }

func (s failingStore) ListBooked(context.Context, time.Time, time.Time, string) ([]models.Booking, error) {
	return nil, s.err
}

func (s failingStore) ListStartedBefore(context.Context, time.Time, int) ([]models.Booking, error) {
	return nil, s.err
}

func (s failingStore) ByID(context.Context, uint) (*models.Booking, error) { return nil, s.err }

func TestBookingService_StorageUnavailable(t *testing.T) {
	svc := NewBookingService(failingStore{err: sql.ErrConnDone}, testPolicy(), schedule.FixedClock{At: testNow})
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, CreateBookingInput{Room: "101", Start: at(1, 12, 0), DurationMin: 30})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	var rej *RejectionError
	assert.False(t, errors.As(err, &rej))

	err = svc.CancelBooking(ctx, 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestBookingService_ValidationRunsBeforeStorage(t *testing.T) {
	svc := NewBookingService(failingStore{err: sql.ErrConnDone}, testPolicy(), schedule.FixedClock{At: testNow})

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{Room: "101", Start: at(1, 12, 0), DurationMin: 50})
	requireRejected(t, err, ErrInvalidDuration)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestCreateBooking_SerializationFailureIsAConflict(t *testing.T) {
	svc := NewBookingService(failingStore{err: models.ErrSerialization}, testPolicy(), schedule.FixedClock{At: testNow})

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{Room: "101", Start: at(1, 12, 0), DurationMin: 30})
	requireRejected(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

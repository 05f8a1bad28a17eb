package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-booking/models"
)

var (
	ErrNotFound      = models.ErrBookingNotFound
	ErrSerialization = models.ErrSerialization
)

const (
	mysqlErrDeadlock        = 1213
	pgSerializationFailure  = "40001"
	pgDeadlockDetected      = "40P01"
	defaultOperationTimeout = 5 * time.Second
)

// BookingRepo stores bookings in a SQL database through gorm.
type BookingRepo struct {
	db      *gorm.DB
	timeout time.Duration
	loc     *time.Location
}

func NewBookingRepo(db *gorm.DB, timeout time.Duration, loc *time.Location) *BookingRepo {
	if timeout <= 0 {
		timeout = defaultOperationTimeout
	}
	if loc == nil {
		loc = time.Local
	}
	return &BookingRepo{db: db, timeout: timeout, loc: loc}
}

func (r *BookingRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// CreateWithNoOverlap locks the room's booked rows starting in [from, to),
// hands them to check and inserts b only if check returns nil. Everything
// runs in one SERIALIZABLE transaction so two creates for the same slot
// cannot both pass the check.
func (r *BookingRepo) CreateWithNoOverlap(ctx context.Context, b *models.Booking, from, to time.Time, check func(sameDay []models.Booking) error) error {
	if !b.Status.Valid() {
		b.Status = models.StatusBooked
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sameDay []models.Booking
		err := tx.Model(&models.Booking{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room = ? AND status = ?", b.Room, models.StatusBooked).
			Where("start_ts >= ? AND start_ts < ?", from, to).
			Order("start_ts ASC").
			Find(&sameDay).Error
		if err != nil {
			return err
		}
		r.localize(sameDay)

		if err := check(sameDay); err != nil {
			return err
		}
		return tx.Create(b).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return translate(err)
}

// Cancel marks the row cancelled. An unknown id updates nothing and is not
// an error.
func (r *BookingRepo) Cancel(ctx context.Context, id uint) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", models.StatusCancelled).Error
	return translate(err)
}

// ListBooked returns booked rows whose start lies in [from, to), optionally
// for one room, oldest first.
func (r *BookingRepo) ListBooked(ctx context.Context, from, to time.Time, room string) ([]models.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	qb := r.db.WithContext(ctx).
		Where("status = ?", models.StatusBooked).
		Where("start_ts >= ? AND start_ts < ?", from, to)
	if room != "" {
		qb = qb.Where("room = ?", room)
	}
	var out []models.Booking
	if err := qb.Order("start_ts ASC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	r.localize(out)
	return out, nil
}

// ListStartedBefore returns rows of any status starting before t, newest
// first, at most limit of them.
func (r *BookingRepo) ListStartedBefore(ctx context.Context, t time.Time, limit int) ([]models.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("start_ts < ?", t).
		Order("start_ts DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	r.localize(out)
	return out, nil
}

func (r *BookingRepo) ByID(ctx context.Context, id uint) (*models.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, translate(err)
	}
	r.localizeOne(&b)
	return &b, nil
}

func (r *BookingRepo) localize(rows []models.Booking) {
	for i := range rows {
		r.localizeOne(&rows[i])
	}
}

func (r *BookingRepo) localizeOne(b *models.Booking) {
	b.StartTS = b.StartTS.In(r.loc)
	b.EndTS = b.EndTS.In(r.loc)
	b.CleanEndTS = b.CleanEndTS.In(r.loc)
	if !b.CreatedAt.IsZero() {
		b.CreatedAt = b.CreatedAt.In(r.loc)
	}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDeadlock {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected) {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return err
}

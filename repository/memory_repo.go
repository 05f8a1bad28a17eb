package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"room-booking/models"
)

// MemoryRepo keeps bookings in process memory. It backs DB_DRIVER=memory for
// local runs without a database; data is lost on restart.
type MemoryRepo struct {
	mu     sync.Mutex
	rows   []models.Booking
	nextID uint
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1}
}

func (r *MemoryRepo) CreateWithNoOverlap(ctx context.Context, b *models.Booking, from, to time.Time, check func(sameDay []models.Booking) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var sameDay []models.Booking
	for _, row := range r.rows {
		if row.Room != b.Room || row.Status != models.StatusBooked {
			continue
		}
		if row.StartTS.Before(from) || !row.StartTS.Before(to) {
			continue
		}
		sameDay = append(sameDay, row)
	}
	sortByStart(sameDay)

	if err := check(sameDay); err != nil {
		return err
	}

	b.ID = r.nextID
	r.nextID++
	if !b.Status.Valid() {
		b.Status = models.StatusBooked
	}
	r.rows = append(r.rows, *b)
	return nil
}

func (r *MemoryRepo) Cancel(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = models.StatusCancelled
			return nil
		}
	}
	return nil
}

func (r *MemoryRepo) ListBooked(ctx context.Context, from, to time.Time, room string) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, row := range r.rows {
		if row.Status != models.StatusBooked {
			continue
		}
		if room != "" && row.Room != room {
			continue
		}
		if row.StartTS.Before(from) || !row.StartTS.Before(to) {
			continue
		}
		out = append(out, row)
	}
	sortByStart(out)
	return out, nil
}

func (r *MemoryRepo) ListStartedBefore(ctx context.Context, t time.Time, limit int) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, row := range r.rows {
		if row.StartTS.Before(t) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTS.After(out[j].StartTS)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ByID(ctx context.Context, id uint) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == id {
			b := row
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func sortByStart(rows []models.Booking) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StartTS.Equal(rows[j].StartTS) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].StartTS.Before(rows[j].StartTS)
	})
}

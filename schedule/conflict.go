package schedule

import (
	"time"

	"room-booking/models"
)

// IntervalsOverlap tests half-open intervals [aStart, aEnd) and [bStart, bEnd).
// Touching intervals do not overlap, which lets a booking start the minute
// the previous cleaning ends.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FilterConflicts returns the active candidates whose [start, cleanEnd)
// overlaps the span's [Start, CleanEnd). excludeID, when set, is skipped.
func FilterConflicts(candidates []models.Booking, span Span, excludeID *uint) []models.Booking {
	var out []models.Booking
	for _, b := range candidates {
		if !b.Status.Active() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		start, cleanEnd := b.Occupies()
		if IntervalsOverlap(span.Start, span.CleanEnd, start, cleanEnd) {
			out = append(out, b)
		}
	}
	return out
}

// SpansMidnight reports a booking whose cleaning tail lands on another date.
// Business-hour validation rules this out; conflict lookups only search the
// start date and rely on it.
func SpansMidnight(start, cleanEnd time.Time) bool {
	return !SameDate(start, cleanEnd)
}

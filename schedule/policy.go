// Package schedule holds the booking rules that need no storage: the daily
// business window, allowed durations, the cleaning buffer and the interval
// arithmetic used for conflict detection.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/datatypes"
)

const clockLayout = "15:04"

// Policy is the fixed set of rules every booking is validated against. The
// window is identical every day, without holidays or exceptions.
type Policy struct {
	Rooms           []string
	Durations       []int // minutes
	CleaningMinutes int
	BusinessStart   datatypes.Time
	BusinessEnd     datatypes.Time
	SlotStep        int // minutes, only used to offer start times
	Location        *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		Rooms:           []string{"101", "102"},
		Durations:       []int{30, 45, 60, 90, 120},
		CleaningMinutes: 30,
		BusinessStart:   datatypes.NewTime(12, 0, 0, 0),
		BusinessEnd:     datatypes.NewTime(20, 0, 0, 0),
		SlotStep:        15,
		Location:        time.Local,
	}
}

func (p Policy) Validate() error {
	if len(p.Rooms) == 0 {
		return errors.New("policy: at least one room is required")
	}
	for _, r := range p.Rooms {
		if r == "" {
			return errors.New("policy: room names must not be empty")
		}
	}
	if len(p.Durations) == 0 {
		return errors.New("policy: at least one allowed duration is required")
	}
	for _, d := range p.Durations {
		if d <= 0 {
			return fmt.Errorf("policy: duration %d must be positive", d)
		}
	}
	if p.CleaningMinutes < 0 {
		return fmt.Errorf("policy: cleaning buffer %d must not be negative", p.CleaningMinutes)
	}
	if p.SlotStep <= 0 {
		return fmt.Errorf("policy: slot step %d must be positive", p.SlotStep)
	}
	if p.BusinessStart >= p.BusinessEnd {
		return fmt.Errorf("policy: business start %s must be before end %s",
			FormatClock(p.BusinessStart), FormatClock(p.BusinessEnd))
	}
	if p.BusinessEnd > datatypes.NewTime(24, 0, 0, 0) {
		return fmt.Errorf("policy: business end %s is past midnight", FormatClock(p.BusinessEnd))
	}
	return nil
}

func (p Policy) Loc() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

func (p Policy) BusinessWindow() (datatypes.Time, datatypes.Time) {
	return p.BusinessStart, p.BusinessEnd
}

func (p Policy) AllowedDurations() []int {
	return slices.Clone(p.Durations)
}

func (p Policy) IsAllowedDuration(minutes int) bool {
	return slices.Contains(p.Durations, minutes)
}

func (p Policy) CleaningBuffer() time.Duration {
	return time.Duration(p.CleaningMinutes) * time.Minute
}

func (p Policy) SlotStepMinutes() int {
	return p.SlotStep
}

func (p Policy) HasRoom(room string) bool {
	return slices.Contains(p.Rooms, room)
}

// WithinBusinessHours is true when start and cleanEnd share a calendar date
// and both times of day lie in [BusinessStart, BusinessEnd]. Both bounds are
// inclusive, so a cleaning tail ending exactly at closing time is legal.
func (p Policy) WithinBusinessHours(start, cleanEnd time.Time) bool {
	start, cleanEnd = start.In(p.Loc()), cleanEnd.In(p.Loc())
	if !SameDate(start, cleanEnd) {
		return false
	}
	return p.containsClock(TimeOfDay(start)) && p.containsClock(TimeOfDay(cleanEnd))
}

func (p Policy) containsClock(t datatypes.Time) bool {
	return p.BusinessStart <= t && t <= p.BusinessEnd
}

// Span is a booking's computed timeline: [Start, End) is the booking itself
// and [End, CleanEnd) the cleaning tail.
type Span struct {
	Start    time.Time
	End      time.Time
	CleanEnd time.Time
}

func (p Policy) Span(start time.Time, durationMin int) Span {
	end := start.Add(time.Duration(durationMin) * time.Minute)
	return Span{Start: start, End: end, CleanEnd: end.Add(p.CleaningBuffer())}
}

// DayStart returns midnight of t's calendar date in the policy location.
func (p Policy) DayStart(t time.Time) time.Time {
	t = t.In(p.Loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.Loc())
}

// At combines a calendar date and a wall-clock time of day in the policy
// location. Adding the clock to midnight would drift by an hour on DST days.
func (p Policy) At(day time.Time, clock datatypes.Time) time.Time {
	y, m, d := day.In(p.Loc()).Date()
	c := time.Duration(clock)
	return time.Date(y, m, d,
		int(c/time.Hour), int(c%time.Hour/time.Minute), int(c%time.Minute/time.Second), int(c%time.Second),
		p.Loc())
}

// Slots lists the HH:MM start times offered to callers, from the opening
// time up to and including the closing time.
func (p Policy) Slots() []string {
	if p.SlotStep <= 0 {
		return nil
	}
	step := datatypes.Time(time.Duration(p.SlotStep) * time.Minute)
	var out []string
	for t := p.BusinessStart; t <= p.BusinessEnd; t += step {
		out = append(out, FormatClock(t))
	}
	return out
}

func TimeOfDay(t time.Time) datatypes.Time {
	return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
}

func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseClock reads "HH:MM" into a time of day.
func ParseClock(s string) (datatypes.Time, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return datatypes.NewTime(t.Hour(), t.Minute(), 0, 0), nil
}

func FormatClock(t datatypes.Time) string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

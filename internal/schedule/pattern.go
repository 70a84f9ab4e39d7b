package schedule

import (
	"fmt"
	"time"
)

// Frequency is the base period of a recurrence pattern.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	BiWeekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Pattern is an immutable schedule rule. Build one through the per-frequency
// constructors so that the field combination is always sufficient to compute
// the next occurrence from any date.
type Pattern struct {
	Frequency   Frequency
	Interval    int
	DayOfMonth  int
	DayOfWeek   time.Weekday
	MonthOfYear time.Month
}

func NewDaily(interval int) (Pattern, error) {
	if interval < 1 {
		return Pattern{}, fmt.Errorf("daily pattern: interval must be positive, got %d", interval)
	}
	return Pattern{Frequency: Daily, Interval: interval}, nil
}

func NewWeekly(interval int, day time.Weekday) (Pattern, error) {
	if interval < 1 {
		return Pattern{}, fmt.Errorf("weekly pattern: interval must be positive, got %d", interval)
	}
	if day < time.Sunday || day > time.Saturday {
		return Pattern{}, fmt.Errorf("weekly pattern: invalid weekday %d", day)
	}
	return Pattern{Frequency: Weekly, Interval: interval, DayOfWeek: day}, nil
}

// NewBiWeekly is a fixed 14-day step aligned to the given weekday. The
// interval is implicitly two weeks and not separately configurable.
func NewBiWeekly(day time.Weekday) (Pattern, error) {
	if day < time.Sunday || day > time.Saturday {
		return Pattern{}, fmt.Errorf("biweekly pattern: invalid weekday %d", day)
	}
	return Pattern{Frequency: BiWeekly, Interval: 2, DayOfWeek: day}, nil
}

func NewMonthly(interval, dayOfMonth int) (Pattern, error) {
	if interval < 1 {
		return Pattern{}, fmt.Errorf("monthly pattern: interval must be positive, got %d", interval)
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return Pattern{}, fmt.Errorf("monthly pattern: day of month must be 1-31, got %d", dayOfMonth)
	}
	return Pattern{Frequency: Monthly, Interval: interval, DayOfMonth: dayOfMonth}, nil
}

func NewQuarterly(dayOfMonth int) (Pattern, error) {
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return Pattern{}, fmt.Errorf("quarterly pattern: day of month must be 1-31, got %d", dayOfMonth)
	}
	return Pattern{Frequency: Quarterly, Interval: 1, DayOfMonth: dayOfMonth}, nil
}

func NewYearly(month time.Month, dayOfMonth int) (Pattern, error) {
	if month < time.January || month > time.December {
		return Pattern{}, fmt.Errorf("yearly pattern: invalid month %d", month)
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return Pattern{}, fmt.Errorf("yearly pattern: day of month must be 1-31, got %d", dayOfMonth)
	}
	return Pattern{Frequency: Yearly, Interval: 1, DayOfMonth: dayOfMonth, MonthOfYear: month}, nil
}

// NextOccurrence returns the first occurrence strictly after d.
func (p Pattern) NextOccurrence(d time.Time) time.Time {
	d = DateOnly(d)

	switch p.Frequency {
	case Daily:
		return d.AddDate(0, 0, p.Interval)

	case Weekly, BiWeekly:
		next := d.AddDate(0, 0, 1)
		for next.Weekday() != p.DayOfWeek {
			next = next.AddDate(0, 0, 1)
		}
		if p.Interval > 1 {
			next = next.AddDate(0, 0, 7*(p.Interval-1))
		}
		return next

	case Monthly, Quarterly:
		months := p.Interval
		if p.Frequency == Quarterly {
			months = 3 * p.Interval
		}
		year, month := d.Year(), int(d.Month())+months
		for month > 12 {
			month -= 12
			year++
		}
		return clampedDate(year, time.Month(month), p.DayOfMonth, d.Location())

	case Yearly:
		next := clampedDate(d.Year(), p.MonthOfYear, p.DayOfMonth, d.Location())
		for !next.After(d) {
			next = clampedDate(next.Year()+1, p.MonthOfYear, p.DayOfMonth, d.Location())
		}
		return next
	}

	// Unreachable for patterns built via the constructors.
	return d.AddDate(0, 0, 1)
}

// OccurrencesBetween enumerates every occurrence inside [from, to], walking
// iteratively from start. It never touches caller state, so repeated calls
// over the same window are idempotent. An end date, when present, caps the
// enumeration even if the window extends past it.
func (p Pattern) OccurrencesBetween(start time.Time, end *time.Time, from, to time.Time) []time.Time {
	from, to = DateOnly(from), DateOnly(to)
	var out []time.Time
	for d := DateOnly(start); !d.After(to); d = p.NextOccurrence(d) {
		if end != nil && d.After(DateOnly(*end)) {
			break
		}
		if !d.Before(from) {
			out = append(out, d)
		}
	}
	return out
}

// clampedDate builds a date clamping day to the month's actual length, so a
// day-31 schedule lands on Feb 28/29 instead of rolling into March.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOnly truncates a timestamp to its calendar date, preserving location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

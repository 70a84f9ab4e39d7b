package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"finance-ledger-backend/internal/schedule"
)

// RecurringTransaction is a schedule for a repeating single-account movement.
// The pattern columns are flattened for persistence; Pattern() rebuilds the
// validated value type.
type RecurringTransaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID   uuid.UUID `gorm:"index"`
	Description string
	Amount      float64
	CategoryID  *uuid.UUID

	Frequency   string `gorm:"index"`
	Interval    int
	DayOfMonth  int
	DayOfWeek   int
	MonthOfYear int

	StartDate         time.Time
	EndDate           *time.Time
	NextOccurrence    time.Time `gorm:"index"`
	LastGeneratedDate *time.Time
	IsActive          bool `gorm:"index"`
	CreatedAt         time.Time
}

// RecurringTransfer is a schedule for a repeating two-leg movement between a
// source and a destination account. Amount is unsigned; direction lives on
// the projected legs.
type RecurringTransfer struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	SourceAccountID      uuid.UUID `gorm:"index"`
	DestinationAccountID uuid.UUID `gorm:"index"`
	Description          string
	Amount               float64

	Frequency   string `gorm:"index"`
	Interval    int
	DayOfMonth  int
	DayOfWeek   int
	MonthOfYear int

	StartDate         time.Time
	EndDate           *time.Time
	NextOccurrence    time.Time `gorm:"index"`
	LastGeneratedDate *time.Time
	IsActive          bool `gorm:"index"`
	CreatedAt         time.Time
}

func patternFromColumns(frequency string, interval, dayOfMonth, dayOfWeek, monthOfYear int) (schedule.Pattern, error) {
	switch schedule.Frequency(frequency) {
	case schedule.Daily:
		return schedule.NewDaily(interval)
	case schedule.Weekly:
		return schedule.NewWeekly(interval, time.Weekday(dayOfWeek))
	case schedule.BiWeekly:
		return schedule.NewBiWeekly(time.Weekday(dayOfWeek))
	case schedule.Monthly:
		return schedule.NewMonthly(interval, dayOfMonth)
	case schedule.Quarterly:
		return schedule.NewQuarterly(dayOfMonth)
	case schedule.Yearly:
		return schedule.NewYearly(time.Month(monthOfYear), dayOfMonth)
	default:
		return schedule.Pattern{}, fmt.Errorf("unknown frequency %q", frequency)
	}
}

func (rt *RecurringTransaction) Pattern() (schedule.Pattern, error) {
	return patternFromColumns(rt.Frequency, rt.Interval, rt.DayOfMonth, rt.DayOfWeek, rt.MonthOfYear)
}

// AdvanceNextOccurrence moves the cursor past the current occurrence and
// deactivates the schedule once the cursor passes its end date. Projection
// never calls this; it belongs to the materialization path only.
func (rt *RecurringTransaction) AdvanceNextOccurrence() error {
	p, err := rt.Pattern()
	if err != nil {
		return err
	}
	generated := rt.NextOccurrence
	rt.LastGeneratedDate = &generated
	rt.NextOccurrence = p.NextOccurrence(rt.NextOccurrence)
	if rt.EndDate != nil && rt.NextOccurrence.After(*rt.EndDate) {
		rt.IsActive = false
	}
	return nil
}

// Pause stops projection and advancement without touching the cursor.
func (rt *RecurringTransaction) Pause() { rt.IsActive = false }

// Resume re-enables the schedule where the cursor left off.
func (rt *RecurringTransaction) Resume() { rt.IsActive = true }

// OccurrencesBetween enumerates occurrence dates inside [from, to] starting
// from StartDate, independent of the live cursor.
func (rt *RecurringTransaction) OccurrencesBetween(from, to time.Time) ([]time.Time, error) {
	p, err := rt.Pattern()
	if err != nil {
		return nil, err
	}
	return p.OccurrencesBetween(rt.StartDate, rt.EndDate, from, to), nil
}

func (rt *RecurringTransfer) Pattern() (schedule.Pattern, error) {
	return patternFromColumns(rt.Frequency, rt.Interval, rt.DayOfMonth, rt.DayOfWeek, rt.MonthOfYear)
}

func (rt *RecurringTransfer) AdvanceNextOccurrence() error {
	p, err := rt.Pattern()
	if err != nil {
		return err
	}
	generated := rt.NextOccurrence
	rt.LastGeneratedDate = &generated
	rt.NextOccurrence = p.NextOccurrence(rt.NextOccurrence)
	if rt.EndDate != nil && rt.NextOccurrence.After(*rt.EndDate) {
		rt.IsActive = false
	}
	return nil
}

func (rt *RecurringTransfer) Pause() { rt.IsActive = false }

func (rt *RecurringTransfer) Resume() { rt.IsActive = true }

func (rt *RecurringTransfer) OccurrencesBetween(from, to time.Time) ([]time.Time, error) {
	p, err := rt.Pattern()
	if err != nil {
		return nil, err
	}
	return p.OccurrencesBetween(rt.StartDate, rt.EndDate, from, to), nil
}

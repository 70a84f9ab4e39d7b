package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExceptionSkip   = "skip"
	ExceptionModify = "modify"
)

// RecurringException overrides a single projected occurrence. It is keyed by
// the originally scheduled date, never by a moved date, so history survives
// edits. ScheduleID references either a RecurringTransaction or a
// RecurringTransfer; the two draw from the same uuid space.
type RecurringException struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScheduleID   uuid.UUID `gorm:"uniqueIndex:idx_exception_schedule_date"`
	OriginalDate time.Time `gorm:"uniqueIndex:idx_exception_schedule_date"`
	Type         string

	// Replacement values for Type == modify. Nil means "keep the
	// schedule's value".
	NewAmount      *float64
	NewDescription *string
	NewDate        *time.Time

	CreatedAt time.Time
}

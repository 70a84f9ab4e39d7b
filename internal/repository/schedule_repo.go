package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/schedule"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Expose DB if needed
func (r *ScheduleRepository) DB() *gorm.DB {
	return r.db
}

func (r *ScheduleRepository) ActiveTransactions() ([]models.RecurringTransaction, error) {
	var schedules []models.RecurringTransaction
	err := r.db.Where("is_active = ?", true).Find(&schedules).Error
	return schedules, err
}

func (r *ScheduleRepository) ActiveTransfers() ([]models.RecurringTransfer, error) {
	var transfers []models.RecurringTransfer
	err := r.db.Where("is_active = ?", true).Find(&transfers).Error
	return transfers, err
}

func (r *ScheduleRepository) GetTransaction(id uuid.UUID) (*models.RecurringTransaction, error) {
	var rt models.RecurringTransaction
	if err := r.db.First(&rt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *ScheduleRepository) Save(rt *models.RecurringTransaction) error {
	return r.db.Save(rt).Error
}

func (r *ScheduleRepository) SaveTransfer(tr *models.RecurringTransfer) error {
	return r.db.Save(tr).Error
}

// ExceptionsForDates fetches exceptions keyed to exactly the given original
// dates. Exact-date lookup, not range, so an exception cannot leak across
// different expansions of the same pattern.
func (r *ScheduleRepository) ExceptionsForDates(scheduleID uuid.UUID, dates []time.Time) ([]models.RecurringException, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	normalized := make([]time.Time, len(dates))
	for i, d := range dates {
		normalized[i] = schedule.DateOnly(d)
	}
	var exceptions []models.RecurringException
	err := r.db.
		Where("schedule_id = ? AND original_date IN ?", scheduleID, normalized).
		Find(&exceptions).Error
	return exceptions, err
}

// RealizedDates reports which of the given instance dates already have a
// confirmed ledger transaction linked to the schedule.
func (r *ScheduleRepository) RealizedDates(scheduleID uuid.UUID, dates []time.Time) (map[time.Time]struct{}, error) {
	if len(dates) == 0 {
		return map[time.Time]struct{}{}, nil
	}
	normalized := make([]time.Time, len(dates))
	for i, d := range dates {
		normalized[i] = schedule.DateOnly(d)
	}
	var realized []time.Time
	err := r.db.Model(&models.Transaction{}).
		Where("recurring_transaction_id = ? AND instance_date IN ?", scheduleID, normalized).
		Pluck("instance_date", &realized).Error
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]struct{}, len(realized))
	for _, d := range realized {
		out[schedule.DateOnly(d)] = struct{}{}
	}
	return out, nil
}

// CreateException inserts an override for one original date; the unique
// (schedule, original date) index makes a second insert a no-op.
func (r *ScheduleRepository) CreateException(ex *models.RecurringException) error {
	ex.OriginalDate = schedule.DateOnly(ex.OriginalDate)
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(ex).Error
}

// DeleteExceptionsFrom bulk-removes exceptions on or after the cutoff,
// supporting "this and future" edits.
func (r *ScheduleRepository) DeleteExceptionsFrom(scheduleID uuid.UUID, cutoff time.Time) (int64, error) {
	result := r.db.
		Where("schedule_id = ? AND original_date >= ?", scheduleID, schedule.DateOnly(cutoff)).
		Delete(&models.RecurringException{})
	return result.RowsAffected, result.Error
}

package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/schedule"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts a suggestion; the unique triple index plus OnConflict
// DoNothing makes a re-run over the same data a no-op.
func (r *MatchRepository) Create(m *models.ReconciliationMatch) error {
	m.InstanceDate = schedule.DateOnly(m.InstanceDate)
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}

// Exists reports whether a suggestion for the triple is already persisted.
func (r *MatchRepository) Exists(txID, scheduleID uuid.UUID, instanceDate time.Time) (bool, error) {
	var m models.ReconciliationMatch
	err := r.db.
		Where("transaction_id = ? AND recurring_transaction_id = ? AND instance_date = ?",
			txID, scheduleID, schedule.DateOnly(instanceDate)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MatchRepository) GetByID(id uuid.UUID) (*models.ReconciliationMatch, error) {
	var m models.ReconciliationMatch
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepository) ListByStatus(status string) ([]models.ReconciliationMatch, error) {
	query := r.db.Order("created_at ASC")
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	var matches []models.ReconciliationMatch
	err := query.Find(&matches).Error
	return matches, err
}

func (r *MatchRepository) UpdateStatus(id uuid.UUID, status string) error {
	return r.db.Model(&models.ReconciliationMatch{}).
		Where("id = ?", id).
		Update("status", status).Error
}

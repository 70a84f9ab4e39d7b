package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/schedule"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) DB() *gorm.DB {
	return r.db
}

func (r *TransactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *TransactionRepository) GetByID(id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// InRange returns transactions dated inside [from, to], optionally filtered
// by account.
func (r *TransactionRepository) InRange(from, to time.Time, accountID *uuid.UUID) ([]models.Transaction, error) {
	query := r.db.
		Where("transaction_date >= ? AND transaction_date <= ?", schedule.DateOnly(from), schedule.DateOnly(to)).
		Order("transaction_date ASC")
	if accountID != nil {
		query = query.Where("account_id = ?", *accountID)
	}
	var txs []models.Transaction
	err := query.Find(&txs).Error
	return txs, err
}

// ByBatch returns the transactions created by one import batch.
func (r *TransactionRepository) ByBatch(batchID uuid.UUID) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("import_batch_id = ?", batchID).Order("transaction_date ASC").Find(&txs).Error
	return txs, err
}

// FindNearAmountDate returns existing transactions on the account with the
// same amount dated within windowDays of date. Used for import duplicate
// suppression before the fuzzy description check.
func (r *TransactionRepository) FindNearAmountDate(accountID uuid.UUID, amount float64, date time.Time, windowDays int) ([]models.Transaction, error) {
	day := schedule.DateOnly(date)
	from := day.AddDate(0, 0, -windowDays)
	to := day.AddDate(0, 0, windowDays)
	var txs []models.Transaction
	err := r.db.
		Where("account_id = ? AND amount = ?", accountID, amount).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to).
		Find(&txs).Error
	return txs, err
}

// SetRealizedLink records that the transaction realizes one projected
// instance of a schedule.
func (r *TransactionRepository) SetRealizedLink(txID, scheduleID uuid.UUID, instanceDate time.Time) error {
	return r.db.Model(&models.Transaction{}).
		Where("id = ?", txID).
		Updates(map[string]interface{}{
			"recurring_transaction_id": scheduleID,
			"instance_date":            schedule.DateOnly(instanceDate),
		}).Error
}

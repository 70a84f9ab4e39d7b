package models

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AccountID       uuid.UUID  `gorm:"index"`
	ImportBatchID   *uuid.UUID `gorm:"index"`
	TransactionDate time.Time  `gorm:"column:transaction_date;index"`
	Description     string
	Amount          float64 `gorm:"index"`
	ReferenceNumber string
	CategoryID      *uuid.UUID

	// Set when the transaction is confirmed as the realization of a
	// projected recurring instance. The projector suppresses that
	// instance from then on.
	RecurringTransactionID *uuid.UUID `gorm:"index:idx_realized_instance"`
	InstanceDate           *time.Time `gorm:"index:idx_realized_instance"`

	CreatedAt time.Time
}

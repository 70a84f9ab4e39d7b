package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MatchSuggested = "suggested"
	MatchConfirmed = "confirmed"
	MatchRejected  = "rejected"
)

// ReconciliationMatch links one real transaction to one projected occurrence
// of a recurring schedule. The triple is unique: a transaction may carry
// candidate suggestions against different instances, never two identical
// links.
type ReconciliationMatch struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID          uuid.UUID `gorm:"uniqueIndex:idx_match_triple"`
	RecurringTransactionID uuid.UUID `gorm:"uniqueIndex:idx_match_triple"`
	InstanceDate           time.Time `gorm:"uniqueIndex:idx_match_triple"`

	ConfidenceScore float64
	ConfidenceLevel string
	Status          string `gorm:"index"`
	AmountVariance  float64
	DateOffsetDays  int
	MatchDetails    datatypes.JSON
	CreatedAt       time.Time
}

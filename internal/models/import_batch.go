package models

import (
	"time"

	"github.com/google/uuid"
)

type ImportBatch struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID      uuid.UUID `gorm:"index"`
	Filename       string
	TotalRows      int
	ProcessedCount int
	ImportedCount  int
	DuplicateCount int
	Status         string
	StartedAt      time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finance-ledger-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Transaction{},
		&models.RecurringTransaction{},
		&models.RecurringException{},
		&models.ReconciliationMatch{},
	))
	return db
}

func TestMatchCreateIgnoresDuplicateTriple(t *testing.T) {
	repo := NewMatchRepository(openTestDB(t))

	txID := uuid.New()
	scheduleID := uuid.New()
	instance := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	first := models.ReconciliationMatch{
		ID:                     uuid.New(),
		TransactionID:          txID,
		RecurringTransactionID: scheduleID,
		InstanceDate:           instance,
		ConfidenceScore:        0.9,
		Status:                 models.MatchSuggested,
		CreatedAt:              time.Now(),
	}
	require.NoError(t, repo.Create(&first))

	second := first
	second.ID = uuid.New()
	second.ConfidenceScore = 0.5
	require.NoError(t, repo.Create(&second))

	matches, err := repo.ListByStatus("all")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, first.ID, matches[0].ID)
	assert.Equal(t, 0.9, matches[0].ConfidenceScore)
}

func TestMatchExistsNormalizesInstanceDate(t *testing.T) {
	repo := NewMatchRepository(openTestDB(t))

	txID := uuid.New()
	scheduleID := uuid.New()
	require.NoError(t, repo.Create(&models.ReconciliationMatch{
		ID:                     uuid.New(),
		TransactionID:          txID,
		RecurringTransactionID: scheduleID,
		InstanceDate:           time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		Status:                 models.MatchSuggested,
		CreatedAt:              time.Now(),
	}))

	// A timestamp inside the same day still hits the stored triple.
	exists, err := repo.Exists(txID, scheduleID, time.Date(2026, time.January, 15, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(txID, scheduleID, time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExceptionUniquePerOriginalDate(t *testing.T) {
	db := openTestDB(t)
	repo := NewScheduleRepository(db)

	scheduleID := uuid.New()
	original := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateException(&models.RecurringException{
		ID:           uuid.New(),
		ScheduleID:   scheduleID,
		OriginalDate: original,
		Type:         models.ExceptionSkip,
		CreatedAt:    time.Now(),
	}))
	// Second override for the same occurrence is a no-op, not an error.
	require.NoError(t, repo.CreateException(&models.RecurringException{
		ID:           uuid.New(),
		ScheduleID:   scheduleID,
		OriginalDate: original,
		Type:         models.ExceptionModify,
		CreatedAt:    time.Now(),
	}))

	exceptions, err := repo.ExceptionsForDates(scheduleID, []time.Time{original})
	require.NoError(t, err)
	require.Len(t, exceptions, 1)
	assert.Equal(t, models.ExceptionSkip, exceptions[0].Type)
}

func TestFindNearAmountDateWindow(t *testing.T) {
	db := openTestDB(t)
	repo := NewTransactionRepository(db)
	account := uuid.New()

	mk := func(desc string, amount float64, d time.Time) {
		require.NoError(t, repo.Create(&models.Transaction{
			ID:              uuid.New(),
			AccountID:       account,
			TransactionDate: d,
			Description:     desc,
			Amount:          amount,
			CreatedAt:       time.Now(),
		}))
	}
	mk("inside", 15.99, time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC))
	mk("edge", 15.99, time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC))
	mk("outside", 15.99, time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC))
	mk("wrong amount", 20.00, time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC))

	near, err := repo.FindNearAmountDate(account, 15.99, time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC), 3)
	require.NoError(t, err)
	require.Len(t, near, 2)

	descs := []string{near[0].Description, near[1].Description}
	assert.Contains(t, descs, "inside")
	assert.Contains(t, descs, "edge")
}

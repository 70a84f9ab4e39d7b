package reconciliation

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"finance-ledger-backend/internal/config"
	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/repository"
	"finance-ledger-backend/internal/schedule"
	"finance-ledger-backend/internal/services/fuzzy"
	"finance-ledger-backend/internal/services/matching"
	"finance-ledger-backend/internal/services/projection"
)

// Service orchestrates the reconciliation pass: project instances for the
// window, score every (transaction, candidate) pair, and bucket the winners
// into auto-matched vs pending-review by the auto-match threshold.
type Service struct {
	schedules    *repository.ScheduleRepository
	transactions *repository.TransactionRepository
	matches      *repository.MatchRepository
	projector    *projection.Projector
	scorer       *matching.Scorer
	fuzzy        *fuzzy.Matcher
	cfg          config.EngineConfig
	db           *gorm.DB
	logger       *slog.Logger

	progressCache sync.Map // batchID -> *Progress
}

type Progress struct {
	ProcessedCount int
	Total          int
	Status         string
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	AutoMatched []models.ReconciliationMatch `json:"auto_matched"`
	Pending     []models.ReconciliationMatch `json:"pending"`
	Unmatched   int                          `json:"unmatched"`
	Skipped     int                          `json:"skipped"`
}

func NewService(
	scheduleRepo *repository.ScheduleRepository,
	transactionRepo *repository.TransactionRepository,
	matchRepo *repository.MatchRepository,
	fuzzyMatcher *fuzzy.Matcher,
	cfg config.EngineConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		schedules:    scheduleRepo,
		transactions: transactionRepo,
		matches:      matchRepo,
		projector:    projection.NewProjector(scheduleRepo),
		scorer:       matching.NewScorer(fuzzyMatcher),
		fuzzy:        fuzzyMatcher,
		cfg:          cfg,
		db:           scheduleRepo.DB(),
		logger:       logger,
	}
}

// Tolerances returns the engine's configured scoring bounds.
func (s *Service) Tolerances() matching.Tolerances {
	return matching.Tolerances{
		DateOffsetDays: s.cfg.DateToleranceDays,
		AmountVariance: s.cfg.AmountTolerance,
	}
}

// CreateBatch creates a new ImportBatch in DB
func (s *Service) CreateBatch(accountID uuid.UUID, filename string) *models.ImportBatch {
	batch := &models.ImportBatch{
		ID:        uuid.New(),
		AccountID: accountID,
		Filename:  filename,
		Status:    "processing",
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	s.db.Create(batch)
	return batch
}

func (s *Service) GetBatch(batchID uuid.UUID) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	if err := s.db.First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// ImportRow inserts one bank row unless it duplicates an existing
// transaction: same account and amount within the duplicate window, with a
// fuzzy-equal description. Returns (nil, true, nil) for a suppressed row.
func (s *Service) ImportRow(
	batchID, accountID uuid.UUID,
	date time.Time,
	description string,
	amount float64,
	reference string,
) (*models.Transaction, bool, error) {
	nearby, err := s.transactions.FindNearAmountDate(accountID, amount, date, s.cfg.DuplicateWindowDays)
	if err != nil {
		return nil, false, err
	}
	for _, existing := range nearby {
		if s.fuzzy.Compare(description, existing.Description).Matched() {
			s.logger.Debug("suppressing duplicate import row",
				"description", description,
				"existing_id", existing.ID,
				"amount", amount)
			return nil, true, nil
		}
	}

	batch := batchID
	tx := &models.Transaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		ImportBatchID:   &batch,
		TransactionDate: schedule.DateOnly(date),
		Description:     description,
		Amount:          amount,
		ReferenceNumber: reference,
		CreatedAt:       time.Now(),
	}
	if err := s.transactions.Create(tx); err != nil {
		return nil, false, err
	}
	return tx, false, nil
}

// Reconcile runs the scorer over every (transaction, nearby instance) pair
// and persists the winning suggestions. Re-running over the same data is
// idempotent: an existing (transaction, schedule, instanceDate) triple is
// never suggested twice. Winners at or above the auto-match threshold are
// confirmed immediately and linked to their instance; the rest await review.
func (s *Service) Reconcile(ctx context.Context, txs []models.Transaction, from, to time.Time) (*Result, error) {
	schedules, err := s.schedules.ActiveTransactions()
	if err != nil {
		return nil, err
	}

	// Cancellation point between the fetch and compute phases.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Transfers are excluded from matching: a bank row is one-sided, so
	// only single-account schedules are candidates. Transfer instances
	// surface through the projection API instead.
	instancesByDate, err := s.projector.Project(schedules, nil, from, to, nil)
	if err != nil {
		return nil, err
	}
	var candidates []projection.Instance
	for _, batch := range instancesByDate {
		candidates = append(candidates, batch...)
	}

	tol := s.Tolerances()
	result := &Result{}

	for i := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tx := txs[i]

		best := s.scorer.FindBestMatch(tx, candidates, tol)
		if best == nil {
			result.Unmatched++
			continue
		}

		exists, err := s.matches.Exists(tx.ID, best.Instance.ScheduleID, best.Instance.ScheduledDate)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		match, err := s.persistMatch(tx, best)
		if err != nil {
			return nil, err
		}
		if match.Status == models.MatchConfirmed {
			result.AutoMatched = append(result.AutoMatched, *match)
		} else {
			result.Pending = append(result.Pending, *match)
		}
	}

	s.logger.Info("reconciliation pass complete",
		"transactions", len(txs),
		"auto_matched", len(result.AutoMatched),
		"pending", len(result.Pending),
		"unmatched", result.Unmatched,
		"skipped", result.Skipped)

	return result, nil
}

func (s *Service) persistMatch(tx models.Transaction, best *matching.MatchResult) (*models.ReconciliationMatch, error) {
	status := models.MatchSuggested
	if best.Score >= s.cfg.AutoMatchThreshold {
		status = models.MatchConfirmed
	}

	details, _ := json.Marshal(map[string]interface{}{
		"transaction_desc":    tx.Description,
		"instance_desc":       best.Instance.Description,
		"date_offset_days":    best.DateOffsetDays,
		"amount_variance":     best.AmountVariance,
		"description_matched": best.DescriptionMatched,
		"edit_distance":       best.EditDistance,
		"jaccard":             best.Jaccard,
		"score":               best.Score,
		"decision":            status,
	})

	match := &models.ReconciliationMatch{
		ID:                     uuid.New(),
		TransactionID:          tx.ID,
		RecurringTransactionID: best.Instance.ScheduleID,
		InstanceDate:           best.Instance.ScheduledDate,
		ConfidenceScore:        best.Score,
		ConfidenceLevel:        best.Level,
		Status:                 status,
		AmountVariance:         best.AmountVariance,
		DateOffsetDays:         best.DateOffsetDays,
		MatchDetails:           details,
		CreatedAt:              time.Now(),
	}
	if err := s.matches.Create(match); err != nil {
		return nil, err
	}

	if status == models.MatchConfirmed {
		if err := s.transactions.SetRealizedLink(tx.ID, match.RecurringTransactionID, match.InstanceDate); err != nil {
			return nil, err
		}
	}
	return match, nil
}

// ReconcileBatch reconciles the transactions imported by one batch, using a
// window derived from the batch's date span widened by the date tolerance.
func (s *Service) ReconcileBatch(ctx context.Context, batchID uuid.UUID) (*Result, error) {
	txs, err := s.transactions.ByBatch(batchID)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return &Result{}, nil
	}

	from, to := txs[0].TransactionDate, txs[0].TransactionDate
	for _, tx := range txs[1:] {
		if tx.TransactionDate.Before(from) {
			from = tx.TransactionDate
		}
		if tx.TransactionDate.After(to) {
			to = tx.TransactionDate
		}
	}
	from = from.AddDate(0, 0, -s.cfg.DateToleranceDays)
	to = to.AddDate(0, 0, s.cfg.DateToleranceDays)

	return s.Reconcile(ctx, txs, from, to)
}

// ConfirmMatch accepts a pending suggestion and links the transaction to
// its instance.
func (s *Service) ConfirmMatch(id uuid.UUID) (*models.ReconciliationMatch, error) {
	match, err := s.matches.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.matches.UpdateStatus(id, models.MatchConfirmed); err != nil {
		return nil, err
	}
	if err := s.transactions.SetRealizedLink(match.TransactionID, match.RecurringTransactionID, match.InstanceDate); err != nil {
		return nil, err
	}
	match.Status = models.MatchConfirmed
	return match, nil
}

// RejectMatch marks a suggestion rejected; the transaction stays unlinked.
func (s *Service) RejectMatch(id uuid.UUID) (*models.ReconciliationMatch, error) {
	match, err := s.matches.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.matches.UpdateStatus(id, models.MatchRejected); err != nil {
		return nil, err
	}
	match.Status = models.MatchRejected
	return match, nil
}

func (s *Service) ListMatches(status string) ([]models.ReconciliationMatch, error) {
	return s.matches.ListByStatus(status)
}

// ProjectWindow exposes the projector over all active schedules and
// transfers, for calendar views and import previews.
func (s *Service) ProjectWindow(from, to time.Time, accountFilter *uuid.UUID) (map[time.Time][]projection.Instance, error) {
	schedules, err := s.schedules.ActiveTransactions()
	if err != nil {
		return nil, err
	}
	transfers, err := s.schedules.ActiveTransfers()
	if err != nil {
		return nil, err
	}
	return s.projector.Project(schedules, transfers, from, to, accountFilter)
}

// ProjectSchedule projects a single recurring transaction across a window.
func (s *Service) ProjectSchedule(scheduleID uuid.UUID, from, to time.Time) (map[time.Time][]projection.Instance, error) {
	rt, err := s.schedules.GetTransaction(scheduleID)
	if err != nil {
		return nil, err
	}
	return s.projector.Project([]models.RecurringTransaction{*rt}, nil, from, to, nil)
}

func (s *Service) UpdateBatchProgressCache(batchID uuid.UUID, count int) {
	val, _ := s.progressCache.LoadOrStore(batchID, &Progress{Status: "processing"})
	p := val.(*Progress)
	p.ProcessedCount = count
	s.progressCache.Store(batchID, p)
}

// UpdateBatchProgress updates the processed count in a batch
func (s *Service) UpdateBatchProgress(id uuid.UUID, count int) error {
	return s.db.Model(&models.ImportBatch{}).
		Where("id = ?", id).
		Update("processed_count", count).
		Error
}

// MarkBatchCompleted sets batch status to completed
func (s *Service) MarkBatchCompleted(batchID uuid.UUID, processed, imported, duplicates int) error {
	now := time.Now()
	return s.db.Model(&models.ImportBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"processed_count": processed,
			"total_rows":      processed,
			"imported_count":  imported,
			"duplicate_count": duplicates,
			"status":          "completed",
			"completed_at":    &now,
		}).Error
}

func (s *Service) ScheduleRepo() *repository.ScheduleRepository {
	return s.schedules
}

func (s *Service) TransactionRepo() *repository.TransactionRepository {
	return s.transactions
}

func (s *Service) DB() *gorm.DB {
	return s.db
}

package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finance-ledger-backend/internal/services/projection"
	service "finance-ledger-backend/internal/services/reconciliation"
)

const dateLayout = "2006-01-02"

type LedgerHandler struct {
	service *service.Service
	logger  *slog.Logger
}

func NewLedgerHandler(s *service.Service, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{service: s, logger: logger}
}

// Upload handles CSV bank-statement uploads, creates a batch, and processes
// rows in the background. Expected columns: date, description, amount,
// reference (header row skipped).
func (h *LedgerHandler) Upload(c *gin.Context) {
	accountID, err := uuid.Parse(c.PostForm("account_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	// Buffer the whole file; the request body is gone once we return.
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	batch := h.service.CreateBatch(accountID, header.Filename)

	go h.processCSV(batch.ID, accountID, bytes.NewReader(data))

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": batch.ID.String(),
		"status":   "processing",
	})
}

func (h *LedgerHandler) processCSV(batchID, accountID uuid.UUID, reader io.Reader) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	// Skip header
	_, _ = csvReader.Read()

	processed := 0
	imported := 0
	duplicates := 0

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		if len(record) < 3 || strings.Join(record, "") == "" {
			continue
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		description := strings.TrimSpace(record[1])
		amount, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			continue
		}
		reference := ""
		if len(record) > 3 {
			reference = strings.TrimSpace(record[3])
		}

		_, dup, err := h.service.ImportRow(batchID, accountID, date, description, amount, reference)
		if err != nil {
			h.logger.Error("import row failed", "batch_id", batchID, "error", err)
			continue
		}
		processed++
		if dup {
			duplicates++
		} else {
			imported++
		}

		if processed%100 == 0 {
			h.service.UpdateBatchProgress(batchID, processed)
			h.service.UpdateBatchProgressCache(batchID, processed)
		}
	}

	if _, err := h.service.ReconcileBatch(context.Background(), batchID); err != nil {
		h.logger.Error("batch reconciliation failed", "batch_id", batchID, "error", err)
	}

	h.service.MarkBatchCompleted(batchID, processed, imported, duplicates)
}

func (h *LedgerHandler) GetBatchProgress(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	batch, err := h.service.GetBatch(batchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed_count": batch.ProcessedCount,
		"imported_count":  batch.ImportedCount,
		"duplicate_count": batch.DuplicateCount,
		"total":           batch.TotalRows,
		"status":          batch.Status,
	})
}

// ProjectInstances returns projected occurrences for a window, optionally
// filtered to one account.
func (h *LedgerHandler) ProjectInstances(c *gin.Context) {
	from, to, ok := h.parseWindow(c)
	if !ok {
		return
	}

	var accountFilter *uuid.UUID
	if raw := c.Query("accountId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
			return
		}
		accountFilter = &id
	}

	instances, err := h.service.ProjectWindow(from, to, accountFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instances": instancesByDay(instances)})
}

// ScheduleInstances projects a single schedule across a window.
func (h *LedgerHandler) ScheduleInstances(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}
	from, to, ok := h.parseWindow(c)
	if !ok {
		return
	}

	instances, err := h.service.ProjectSchedule(scheduleID, from, to)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instances": instancesByDay(instances)})
}

// RunReconciliation reconciles all transactions in the requested window.
func (h *LedgerHandler) RunReconciliation(c *gin.Context) {
	var payload struct {
		From      string  `json:"from"`
		To        string  `json:"to"`
		AccountID *string `json:"account_id"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	from, err := time.Parse(dateLayout, payload.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected yyyy-mm-dd"})
		return
	}
	to, err := time.Parse(dateLayout, payload.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected yyyy-mm-dd"})
		return
	}

	var accountID *uuid.UUID
	if payload.AccountID != nil {
		id, err := uuid.Parse(*payload.AccountID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
			return
		}
		accountID = &id
	}

	txs, err := h.service.TransactionRepo().InRange(from, to, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), txs, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) ListMatches(c *gin.Context) {
	matches, err := h.service.ListMatches(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *LedgerHandler) ConfirmMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	match, err := h.service.ConfirmMatch(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match confirmed", "match": match})
}

func (h *LedgerHandler) RejectMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	match, err := h.service.RejectMatch(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match rejected", "match": match})
}

func (h *LedgerHandler) parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected yyyy-mm-dd"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected yyyy-mm-dd"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func instancesByDay(m map[time.Time][]projection.Instance) map[string][]projection.Instance {
	out := make(map[string][]projection.Instance, len(m))
	for date, instances := range m {
		out[date.Format(dateLayout)] = instances
	}
	return out
}

// Package matching scores real ledger transactions against projected
// recurring instances and classifies the result into confidence tiers.
package matching

import (
	"math"
	"time"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/schedule"
	"finance-ledger-backend/internal/services/fuzzy"
	"finance-ledger-backend/internal/services/projection"
)

// Tolerances bound the candidate search. They are supplied per call site so
// an import preview can widen the window without touching global config.
type Tolerances struct {
	DateOffsetDays int
	AmountVariance float64
}

const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
	LevelNone   = "none"
)

// Score composition weights. Date and amount closeness carry the match;
// the description signal is a booster, not a gate.
const (
	dateWeight        = 0.4
	amountWeight      = 0.4
	descriptionWeight = 0.2
)

// MatchResult is the scorer's output for one eligible (transaction,
// instance) pair.
type MatchResult struct {
	Instance           projection.Instance
	Score              float64
	Level              string
	DateOffsetDays     int
	AmountVariance     float64
	DescriptionMatched bool
	EditDistance       int
	Jaccard            float64
}

type Scorer struct {
	fuzzy *fuzzy.Matcher
}

func NewScorer(f *fuzzy.Matcher) *Scorer {
	return &Scorer{fuzzy: f}
}

// CalculateMatch scores one candidate. A nil result means the candidate is
// outside the tolerance bounds, which is a normal outcome, not an error.
func (s *Scorer) CalculateMatch(tx models.Transaction, inst projection.Instance, tol Tolerances) *MatchResult {
	offset := dateOffsetDays(tx.TransactionDate, inst.ScheduledDate)
	if offset > tol.DateOffsetDays {
		return nil
	}
	variance := math.Abs(math.Abs(tx.Amount) - math.Abs(inst.Amount))
	if variance > tol.AmountVariance {
		return nil
	}

	signal := s.fuzzy.Compare(tx.Description, inst.Description)

	dateScore := closeness(float64(offset), float64(tol.DateOffsetDays))
	amountScore := closeness(variance, tol.AmountVariance)
	descScore := 0.0
	if signal.Matched() {
		descScore = 1.0
	}

	score := dateWeight*dateScore + amountWeight*amountScore + descriptionWeight*descScore
	score = math.Min(math.Max(score, 0), 1)

	return &MatchResult{
		Instance:           inst,
		Score:              score,
		Level:              classify(score),
		DateOffsetDays:     offset,
		AmountVariance:     variance,
		DescriptionMatched: signal.Matched(),
		EditDistance:       signal.EditDistance,
		Jaccard:            signal.Jaccard,
	}
}

// FindBestMatch scores every candidate and returns the winner: highest
// score, ties broken by earliest scheduled date for determinism. Nil when no
// candidate is eligible.
func (s *Scorer) FindBestMatch(tx models.Transaction, candidates []projection.Instance, tol Tolerances) *MatchResult {
	var best *MatchResult
	for _, inst := range candidates {
		result := s.CalculateMatch(tx, inst, tol)
		if result == nil {
			continue
		}
		if best == nil ||
			result.Score > best.Score ||
			(result.Score == best.Score && result.Instance.ScheduledDate.Before(best.Instance.ScheduledDate)) {
			best = result
		}
	}
	return best
}

func classify(score float64) string {
	switch {
	case score >= 0.9:
		return LevelHigh
	case score >= 0.6:
		return LevelMedium
	case score >= 0.3:
		return LevelLow
	default:
		return LevelNone
	}
}

// closeness maps a deviation inside [0, tolerance] onto [1, 0]. A zero
// tolerance admits only exact values, already guaranteed by the gate above.
func closeness(deviation, tolerance float64) float64 {
	if tolerance <= 0 {
		return 1
	}
	return 1 - deviation/tolerance
}

func dateOffsetDays(a, b time.Time) int {
	diff := schedule.DateOnly(a).Sub(schedule.DateOnly(b)).Hours() / 24
	return int(math.Abs(math.Round(diff)))
}

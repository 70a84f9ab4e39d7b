// Package projection expands recurring schedules into concrete calendar
// instances for a date window, applying per-occurrence exceptions and
// suppressing instances already realized as ledger transactions.
package projection

import (
	"time"

	"github.com/google/uuid"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/schedule"
)

const (
	DirectionSource      = "source"
	DirectionDestination = "destination"
)

// Instance is one projected occurrence. Transient: recomputed on demand,
// never persisted. ScheduledDate is the originally computed date and stays
// the lookup key even when a modify exception moves OccurrenceDate.
type Instance struct {
	ScheduleID     uuid.UUID  `json:"schedule_id"`
	ScheduledDate  time.Time  `json:"scheduled_date"`
	OccurrenceDate time.Time  `json:"occurrence_date"`
	AccountID      uuid.UUID  `json:"account_id"`
	Description    string     `json:"description"`
	Amount         float64    `json:"amount"`
	IsTransfer     bool       `json:"is_transfer"`
	Direction      string     `json:"direction,omitempty"`
	IsModified     bool       `json:"is_modified"`
	ExceptionID    *uuid.UUID `json:"exception_id,omitempty"`
}

// Store is the persistence surface the projector needs. Lookups are by
// exact date, never by range, so an exception can never be reused across
// different expansions of the same pattern.
type Store interface {
	// ExceptionsForDates returns the exceptions of one schedule keyed to
	// exactly the given original dates.
	ExceptionsForDates(scheduleID uuid.UUID, dates []time.Time) ([]models.RecurringException, error)
	// RealizedDates reports which of the given instance dates already have
	// a realized ledger transaction linked to the schedule.
	RealizedDates(scheduleID uuid.UUID, dates []time.Time) (map[time.Time]struct{}, error)
}

type Projector struct {
	store Store
}

func NewProjector(store Store) *Projector {
	return &Projector{store: store}
}

// Project expands every active schedule overlapping [from, to] into
// instances grouped by occurrence date. A realized transaction supersedes
// its projection, so the same economic event never appears twice. When
// accountFilter is set, only instances touching that account are emitted;
// for transfers that means a single leg instead of both.
func (p *Projector) Project(
	transactions []models.RecurringTransaction,
	transfers []models.RecurringTransfer,
	from, to time.Time,
	accountFilter *uuid.UUID,
) (map[time.Time][]Instance, error) {
	out := make(map[time.Time][]Instance)

	for i := range transactions {
		rt := &transactions[i]
		if !rt.IsActive || !overlapsWindow(rt.StartDate, rt.EndDate, from, to) {
			continue
		}
		if accountFilter != nil && rt.AccountID != *accountFilter {
			continue
		}
		dates, err := rt.OccurrencesBetween(from, to)
		if err != nil {
			return nil, err
		}
		base := Instance{
			ScheduleID:  rt.ID,
			AccountID:   rt.AccountID,
			Description: rt.Description,
			Amount:      rt.Amount,
		}
		if err := p.emit(out, rt.ID, dates, base, nil); err != nil {
			return nil, err
		}
	}

	for i := range transfers {
		tr := &transfers[i]
		if !tr.IsActive || !overlapsWindow(tr.StartDate, tr.EndDate, from, to) {
			continue
		}
		legs := transferLegs(tr, accountFilter)
		if len(legs) == 0 {
			continue
		}
		dates, err := tr.OccurrencesBetween(from, to)
		if err != nil {
			return nil, err
		}
		if err := p.emit(out, tr.ID, dates, Instance{}, func(date Instance) []Instance {
			emitted := make([]Instance, 0, len(legs))
			for _, leg := range legs {
				inst := leg
				inst.ScheduledDate = date.ScheduledDate
				inst.OccurrenceDate = date.OccurrenceDate
				inst.IsModified = date.IsModified
				inst.ExceptionID = date.ExceptionID
				if date.IsModified {
					if date.Amount != 0 {
						inst.Amount = date.Amount
					}
					if date.Description != "" {
						inst.Description = date.Description
					}
				}
				emitted = append(emitted, inst)
			}
			return emitted
		}); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// emit applies the exception overlay and realized suppression to one
// schedule's raw dates, then appends the surviving instances. expand, when
// non-nil, fans a resolved occurrence out into its legs.
func (p *Projector) emit(
	out map[time.Time][]Instance,
	scheduleID uuid.UUID,
	dates []time.Time,
	base Instance,
	expand func(Instance) []Instance,
) error {
	if len(dates) == 0 {
		return nil
	}

	exceptions, err := p.store.ExceptionsForDates(scheduleID, dates)
	if err != nil {
		return err
	}
	byDate := make(map[time.Time]models.RecurringException, len(exceptions))
	for _, ex := range exceptions {
		byDate[schedule.DateOnly(ex.OriginalDate)] = ex
	}

	realized, err := p.store.RealizedDates(scheduleID, dates)
	if err != nil {
		return err
	}

	for _, date := range dates {
		key := schedule.DateOnly(date)
		if _, done := realized[key]; done {
			continue
		}

		inst := base
		inst.ScheduledDate = key
		inst.OccurrenceDate = key

		if ex, ok := byDate[key]; ok {
			if ex.Type == models.ExceptionSkip {
				continue
			}
			inst.IsModified = true
			exID := ex.ID
			inst.ExceptionID = &exID
			if ex.NewAmount != nil {
				inst.Amount = *ex.NewAmount
			}
			if ex.NewDescription != nil {
				inst.Description = *ex.NewDescription
			}
			if ex.NewDate != nil {
				inst.OccurrenceDate = schedule.DateOnly(*ex.NewDate)
			}
		}

		if expand != nil {
			for _, e := range expand(inst) {
				out[e.OccurrenceDate] = append(out[e.OccurrenceDate], e)
			}
			continue
		}
		out[inst.OccurrenceDate] = append(out[inst.OccurrenceDate], inst)
	}
	return nil
}

func transferLegs(tr *models.RecurringTransfer, accountFilter *uuid.UUID) []Instance {
	source := Instance{
		ScheduleID:  tr.ID,
		AccountID:   tr.SourceAccountID,
		Description: tr.Description,
		Amount:      tr.Amount,
		IsTransfer:  true,
		Direction:   DirectionSource,
	}
	destination := source
	destination.AccountID = tr.DestinationAccountID
	destination.Direction = DirectionDestination

	if accountFilter == nil {
		return []Instance{source, destination}
	}
	switch *accountFilter {
	case tr.SourceAccountID:
		return []Instance{source}
	case tr.DestinationAccountID:
		return []Instance{destination}
	default:
		return nil
	}
}

func overlapsWindow(start time.Time, end *time.Time, from, to time.Time) bool {
	if schedule.DateOnly(start).After(schedule.DateOnly(to)) {
		return false
	}
	if end != nil && schedule.DateOnly(*end).Before(schedule.DateOnly(from)) {
		return false
	}
	return true
}

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestDailyNextOccurrence(t *testing.T) {
	p, err := NewDaily(1)
	require.NoError(t, err)
	assert.Equal(t, d(2026, time.January, 2), p.NextOccurrence(d(2026, time.January, 1)))

	p3, err := NewDaily(3)
	require.NoError(t, err)
	assert.Equal(t, d(2026, time.January, 4), p3.NextOccurrence(d(2026, time.January, 1)))
}

func TestWeeklyNextOccurrence(t *testing.T) {
	p, err := NewWeekly(1, time.Friday)
	require.NoError(t, err)

	// 2026-01-01 is a Thursday; next Friday is the 2nd.
	assert.Equal(t, d(2026, time.January, 2), p.NextOccurrence(d(2026, time.January, 1)))

	// From a Friday, the next occurrence is the following Friday, not the
	// same day.
	assert.Equal(t, d(2026, time.January, 9), p.NextOccurrence(d(2026, time.January, 2)))

	every3, err := NewWeekly(3, time.Friday)
	require.NoError(t, err)
	assert.Equal(t, d(2026, time.January, 23), every3.NextOccurrence(d(2026, time.January, 2)))
}

func TestBiWeeklyNextOccurrence(t *testing.T) {
	p, err := NewBiWeekly(time.Monday)
	require.NoError(t, err)

	// 2026-01-05 is a Monday; the aligned step is 14 days.
	assert.Equal(t, d(2026, time.January, 19), p.NextOccurrence(d(2026, time.January, 5)))
}

func TestMonthlyClampsShortMonths(t *testing.T) {
	p, err := NewMonthly(1, 31)
	require.NoError(t, err)

	// A bill due the 31st must land on Feb 28 (2026 is not a leap year)
	// and then recover to the 31st in March, never skipping a month.
	jan := d(2026, time.January, 31)
	feb := p.NextOccurrence(jan)
	mar := p.NextOccurrence(feb)
	apr := p.NextOccurrence(mar)

	assert.Equal(t, d(2026, time.February, 28), feb)
	assert.Equal(t, d(2026, time.March, 31), mar)
	assert.Equal(t, d(2026, time.April, 30), apr)
}

func TestMonthlyLeapYearClamp(t *testing.T) {
	p, err := NewMonthly(1, 31)
	require.NoError(t, err)
	assert.Equal(t, d(2028, time.February, 29), p.NextOccurrence(d(2028, time.January, 31)))
}

func TestQuarterlyNextOccurrence(t *testing.T) {
	p, err := NewQuarterly(15)
	require.NoError(t, err)
	assert.Equal(t, d(2026, time.April, 15), p.NextOccurrence(d(2026, time.January, 15)))
	// Year wrap.
	assert.Equal(t, d(2027, time.January, 15), p.NextOccurrence(d(2026, time.October, 15)))
}

func TestYearlyNextOccurrence(t *testing.T) {
	p, err := NewYearly(time.February, 29)
	require.NoError(t, err)

	// Clamped within the current year when still ahead of the input.
	assert.Equal(t, d(2026, time.February, 28), p.NextOccurrence(d(2026, time.January, 10)))
	// Already past this year's date: advance a year.
	assert.Equal(t, d(2027, time.February, 28), p.NextOccurrence(d(2026, time.February, 28)))
	// Leap year recovers the 29th.
	assert.Equal(t, d(2028, time.February, 29), p.NextOccurrence(d(2027, time.February, 28)))
}

func TestNextOccurrenceStrictlyIncreasing(t *testing.T) {
	patterns := map[string]Pattern{}
	p, _ := NewDaily(2)
	patterns["daily"] = p
	p, _ = NewWeekly(1, time.Wednesday)
	patterns["weekly"] = p
	p, _ = NewBiWeekly(time.Sunday)
	patterns["biweekly"] = p
	p, _ = NewMonthly(1, 31)
	patterns["monthly"] = p
	p, _ = NewQuarterly(30)
	patterns["quarterly"] = p
	p, _ = NewYearly(time.June, 15)
	patterns["yearly"] = p

	for name, pattern := range patterns {
		t.Run(name, func(t *testing.T) {
			cur := d(2026, time.January, 1)
			for i := 0; i < 50; i++ {
				next := pattern.NextOccurrence(cur)
				require.True(t, next.After(cur), "occurrence %d: %v not after %v", i, next, cur)
				cur = next
			}
		})
	}
}

func TestOccurrencesBetween(t *testing.T) {
	p, err := NewMonthly(1, 15)
	require.NoError(t, err)

	start := d(2026, time.January, 15)
	got := p.OccurrencesBetween(start, nil, d(2026, time.February, 1), d(2026, time.April, 30))
	assert.Equal(t, []time.Time{
		d(2026, time.February, 15),
		d(2026, time.March, 15),
		d(2026, time.April, 15),
	}, got)
}

func TestOccurrencesBetweenIncludesStart(t *testing.T) {
	p, err := NewMonthly(1, 15)
	require.NoError(t, err)

	start := d(2026, time.January, 15)
	got := p.OccurrencesBetween(start, nil, d(2026, time.January, 1), d(2026, time.February, 28))
	assert.Equal(t, []time.Time{start, d(2026, time.February, 15)}, got)
}

func TestOccurrencesBetweenRespectsEndDate(t *testing.T) {
	p, err := NewDaily(7)
	require.NoError(t, err)

	start := d(2026, time.January, 1)
	end := d(2026, time.January, 20)
	got := p.OccurrencesBetween(start, &end, start, d(2026, time.March, 1))
	assert.Equal(t, []time.Time{
		d(2026, time.January, 1),
		d(2026, time.January, 8),
		d(2026, time.January, 15),
	}, got)
}

func TestOccurrencesBetweenIdempotent(t *testing.T) {
	p, err := NewWeekly(2, time.Monday)
	require.NoError(t, err)

	start := d(2026, time.January, 5)
	first := p.OccurrencesBetween(start, nil, start, d(2026, time.June, 30))
	second := p.OccurrencesBetween(start, nil, start, d(2026, time.June, 30))
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestFactoryValidation(t *testing.T) {
	_, err := NewDaily(0)
	assert.Error(t, err)

	_, err = NewWeekly(0, time.Monday)
	assert.Error(t, err)

	_, err = NewMonthly(1, 0)
	assert.Error(t, err)

	_, err = NewMonthly(1, 32)
	assert.Error(t, err)

	_, err = NewQuarterly(40)
	assert.Error(t, err)

	_, err = NewYearly(time.Month(13), 10)
	assert.Error(t, err)
}

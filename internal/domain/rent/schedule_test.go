package rent

import (
	"testing"
	"time"

	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDates_Weekly(t *testing.T) {
	t.Run("StartDateIsFirstDueDate", func(t *testing.T) {
		got := DueDates(resident.FrequencyWeekly, day(2024, 1, 1), nil, day(2024, 1, 15))
		assert.Equal(t, []time.Time{day(2024, 1, 1), day(2024, 1, 8), day(2024, 1, 15)}, got)
	})

	t.Run("ContinuesAfterLastCharge", func(t *testing.T) {
		last := day(2024, 1, 8)
		got := DueDates(resident.FrequencyWeekly, day(2024, 1, 1), &last, day(2024, 1, 21))
		assert.Equal(t, []time.Time{day(2024, 1, 15)}, got)
	})

	t.Run("FutureStartHasNothingDue", func(t *testing.T) {
		assert.Empty(t, DueDates(resident.FrequencyWeekly, day(2024, 5, 1), nil, day(2024, 4, 30)))
	})
}

func TestDueDates_Monthly(t *testing.T) {
	t.Run("FirstChargeIsNextFirstOfMonth", func(t *testing.T) {
		got := DueDates(resident.FrequencyMonthly, day(2024, 1, 1), nil, day(2024, 3, 15))
		assert.Equal(t, []time.Time{day(2024, 2, 1), day(2024, 3, 1)}, got)
	})

	t.Run("MidMonthStart", func(t *testing.T) {
		got := DueDates(resident.FrequencyMonthly, day(2024, 1, 20), nil, day(2024, 2, 1))
		assert.Equal(t, []time.Time{day(2024, 2, 1)}, got)
	})

	t.Run("CrossesYearBoundary", func(t *testing.T) {
		last := day(2024, 11, 1)
		got := DueDates(resident.FrequencyMonthly, day(2024, 1, 1), &last, day(2025, 1, 1))
		assert.Equal(t, []time.Time{day(2024, 12, 1), day(2025, 1, 1)}, got)
	})

	t.Run("UpToDate", func(t *testing.T) {
		last := day(2024, 3, 1)
		assert.Empty(t, DueDates(resident.FrequencyMonthly, day(2024, 1, 1), &last, day(2024, 3, 31)))
	})

	t.Run("IgnoresClockOfToday", func(t *testing.T) {
		got := DueDates(resident.FrequencyMonthly, day(2024, 1, 1), nil, time.Date(2024, 2, 1, 23, 59, 0, 0, time.UTC))
		assert.Equal(t, []time.Time{day(2024, 2, 1)}, got)
	})
}

func TestDueDates_UnknownFrequency(t *testing.T) {
	assert.Empty(t, DueDates(resident.Frequency("Daily"), day(2024, 1, 1), nil, day(2024, 3, 1)))
}

package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestElapsedCalendarComponents(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       Elapsed
	}{
		{"same day", date(2024, 5, 10), date(2024, 5, 10), Elapsed{}},
		{"borrow leap february", date(2024, 1, 15), date(2024, 3, 1), Elapsed{Months: 1, Days: 15}},
		{"borrow common february", date(2023, 1, 15), date(2023, 3, 1), Elapsed{Months: 1, Days: 14}},
		{"whole year", date(2024, 1, 1), date(2025, 1, 1), Elapsed{Years: 1}},
		{"borrow year", date(2023, 11, 20), date(2024, 2, 10), Elapsed{Months: 2, Days: 21}},
		{"start day longer than borrowed month", date(2024, 1, 31), date(2024, 3, 1), Elapsed{Days: 30}},
		{"mixed", date(2020, 6, 5), date(2024, 8, 17), Elapsed{Years: 4, Months: 2, Days: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ElapsedCalendarComponents(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElapsedCalendarComponents_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 1, 0, 0, time.UTC)

	got, err := ElapsedCalendarComponents(start, end)
	require.NoError(t, err)
	assert.Equal(t, Elapsed{Months: 1, Days: 15}, got)
}

func TestElapsedCalendarComponents_RejectsReversedRange(t *testing.T) {
	_, err := ElapsedCalendarComponents(date(2024, 3, 1), date(2024, 2, 29))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestElapsedCalendarComponents_NonNegative(t *testing.T) {
	starts := []time.Time{date(2023, 1, 31), date(2023, 2, 28), date(2024, 2, 29), date(2023, 8, 15)}
	for _, start := range starts {
		for i := 0; i < 800; i++ {
			end := start.AddDate(0, 0, i)
			got, err := ElapsedCalendarComponents(start, end)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, got.Years, 0)
			assert.GreaterOrEqual(t, got.Months, 0)
			assert.Less(t, got.Months, 12)
			assert.GreaterOrEqual(t, got.Days, 0)
			assert.Less(t, got.Days, boundingMonthLength(start, end), "start %s end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
		}
	}
}

// boundingMonthLength is the length of end's month when no borrow happens,
// otherwise of the last month borrowed walking back from end.
func boundingMonthLength(start, end time.Time) int {
	days := end.Day() - start.Day()
	month := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	length := DaysIn(month.Year(), month.Month())
	for days < 0 {
		month = month.AddDate(0, -1, 0)
		length = DaysIn(month.Year(), month.Month())
		days += length
	}
	return length
}

func TestElapsedCalendarComponents_DaysWithinBorrowedMonth(t *testing.T) {
	// February 2024 is borrowed
	got, err := ElapsedCalendarComponents(date(2024, 1, 30), date(2024, 3, 29))
	require.NoError(t, err)
	assert.Equal(t, Elapsed{Months: 1, Days: 28}, got)
	assert.Less(t, got.Days, DaysIn(2024, time.February))

	// February 2023 is too short, so January is borrowed as well
	got, err = ElapsedCalendarComponents(date(2023, 1, 31), date(2023, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, Elapsed{Days: 29}, got)
	assert.Equal(t, 31, boundingMonthLength(date(2023, 1, 31), date(2023, 3, 1)))
}

func TestElapsed_String(t *testing.T) {
	assert.Equal(t, "1y 2m 15d", Elapsed{Years: 1, Months: 2, Days: 15}.String())
}

func TestElapsedSince(t *testing.T) {
	got := ElapsedSince(date(2024, 1, 15), 46)
	assert.Equal(t, Elapsed{Months: 1, Days: 15}, got)
	assert.Equal(t, Elapsed{}, ElapsedSince(date(2024, 1, 15), -3))
}

func TestElapsedDays(t *testing.T) {
	assert.Equal(t, 366, ElapsedDays(date(2024, 1, 1), date(2025, 1, 1)))
	assert.Equal(t, 0, ElapsedDays(date(2024, 1, 1), time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, ElapsedDays(date(2024, 1, 2), date(2024, 1, 1)))
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 31, DaysIn(2023, time.December))
}

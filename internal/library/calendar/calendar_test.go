package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths(t *testing.T) {
	testCases := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain 6 months", Date(2025, 1, 31), 6, Date(2025, 7, 31)},
		{"one year", Date(2024, 1, 31), 12, Date(2025, 1, 31)},
		{"leap day plus one year", Date(2024, 2, 29), 12, Date(2025, 2, 28)},
		{"leap day plus four years", Date(2024, 2, 29), 48, Date(2028, 2, 29)},
		{"month end clamps", Date(2025, 1, 31), 1, Date(2025, 2, 28)},
		{"month end clamps in leap year", Date(2024, 1, 31), 1, Date(2024, 2, 29)},
		{"crosses year", Date(2025, 8, 31), 6, Date(2026, 2, 28)},
		{"two years", Date(2023, 3, 15), 24, Date(2025, 3, 15)},
		{"negative", Date(2025, 3, 31), -1, Date(2025, 2, 28)},
		{"negative crossing year", Date(2025, 1, 15), -2, Date(2024, 11, 15)},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.months))
		})
	}
}

func TestAddYears(t *testing.T) {
	assert.Equal(t, Date(2026, 2, 28), AddYears(Date(2024, 2, 29), 2))
}

func TestDaysLate(t *testing.T) {
	due := Date(2025, 3, 1)
	testCases := []struct {
		actual time.Time
		want   int
	}{
		{Date(2025, 2, 20), 0},
		{Date(2025, 3, 1), 0},
		{Date(2025, 3, 4), 3},
		{Date(2025, 4, 1), 31},
	}
	for _, tt := range testCases {
		assert.Equal(t, tt.want, DaysLate(due, tt.actual), Format(tt.actual))
	}
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	from := time.Date(2025, 3, 8, 23, 0, 0, 0, loc)
	to := time.Date(2025, 3, 10, 1, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysBetween(from, to))
}

func TestParse(t *testing.T) {
	d, err := Parse(" 2024-01-31 ")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 1, 31), d)

	for _, bad := range []string{"", "2024-13-01", "2024-02-30", "31/01/2024", "today"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// UTC ではまだ 10/17 だが IST では 10/18
	now := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC).In(loc)
	assert.Equal(t, Date(2026, 10, 18), Today(FixedClock(now)))
}

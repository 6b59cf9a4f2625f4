package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearOf(t *testing.T) {
	cases := []struct {
		date time.Time
		want int
	}{
		{day(2024, time.February, 10), 2023},
		{day(2023, time.April, 1), 2023},
		{day(2024, time.March, 31), 2023},
		{day(2023, time.December, 31), 2023},
		{day(2024, time.January, 1), 2023},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, YearOf(tc.date), tc.date.Format("2006-01-02"))
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 28, DaysInMonth(1900, time.February))
	assert.Equal(t, 29, DaysInMonth(2000, time.February))
	assert.Equal(t, 31, DaysInMonth(2023, time.December))
	assert.Equal(t, 30, DaysInMonth(2023, time.April))
}

func TestOrder(t *testing.T) {
	order := Order()
	require.Len(t, order, 12)
	assert.Equal(t, Apr, order[0])
	assert.Equal(t, Mar, order[11])

	order[0] = Jan
	assert.Equal(t, Apr, Order()[0], "Order must hand out a copy")
}

func TestMonthKeyOf(t *testing.T) {
	assert.Equal(t, Apr, MonthKeyOf(day(2023, time.April, 15)))
	assert.Equal(t, Jan, MonthKeyOf(day(2024, time.January, 2)))
	assert.Equal(t, time.September, Sep.Month())
	assert.Equal(t, time.Month(0), MonthKey("xyz").Month())
	assert.Equal(t, "OCT", Oct.Label())
}

func TestCalendarMonth(t *testing.T) {
	y, m := CalendarMonth(2023, Jan)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.January, m)

	y, m = CalendarMonth(2023, Dec)
	assert.Equal(t, 2023, y)
	assert.Equal(t, time.December, m)
}

func TestRange(t *testing.T) {
	start, end := Range(2023)
	assert.Equal(t, day(2023, time.April, 1), start)
	assert.Equal(t, day(2024, time.April, 1), end)
}

func TestNormalizeKeepsCivilDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2023, time.April, 16, 1, 30, 0, 0, ist)
	assert.Equal(t, day(2023, time.April, 16), Normalize(local))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2023-04-15")
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.April, 15), got)

	got, err = ParseDate("2023-04-15T23:10:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.April, 15), got)

	_, err = ParseDate("15/04/2023")
	assert.Error(t, err)
}

func TestParseMonthName(t *testing.T) {
	for in, want := range map[string]MonthKey{
		"Apr":       Apr,
		"april":     Apr,
		"JAN-24":    Jan,
		"Sept":      Sep,
		"September": Sep,
		" mar ":     Mar,
	} {
		got, ok := ParseMonthName(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "Site Number", "Total", "ap", "marble"} {
		_, ok := ParseMonthName(in)
		assert.False(t, ok, in)
	}
}

package aggregate

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func reading(site int64, date time.Time, kwh float64) domain.DailyReading {
	return domain.DailyReading{SiteID: site, Date: date, GenerationKWh: kwh}
}

func sampleReadings() []domain.DailyReading {
	return []domain.DailyReading{
		reading(1, day(2023, time.April, 1), 100),
		reading(1, day(2023, time.April, 2), 120),
		reading(1, day(2023, time.May, 1), 80),
		reading(1, day(2024, time.January, 5), 60),
		reading(1, day(2024, time.March, 31), 90),
		reading(1, day(2024, time.April, 1), 110),
	}
}

func TestDailyNewestFirstWithTargets(t *testing.T) {
	targets := performance.NewTargetSet([]domain.MonthlyTarget{{FiscalYear: 2023, Apr: 3000}})
	rows := Daily(sampleReadings()[:3], targets)
	require.Len(t, rows, 3)
	assert.Equal(t, "2023-05-01", rows[0].Label)
	assert.Equal(t, "2023-04-01", rows[2].Label)
	assert.Equal(t, 0.0, rows[0].Target)
	assert.Equal(t, 0.0, rows[0].PR)
	assert.Equal(t, 100.0, rows[2].Target)
	assert.Equal(t, 100.0, rows[2].PR)
	assert.Equal(t, performance.StatusExcellent, rows[2].Status)
	require.NotNil(t, rows[2].Date)

	chrono := Chronological(rows)
	assert.Equal(t, "2023-04-01", chrono[0].Label)
	assert.Equal(t, "2023-05-01", rows[0].Label, "input rows untouched")
}

func TestMonthlyGroupsNewestFirst(t *testing.T) {
	buckets := Monthly(sampleReadings())
	require.Len(t, buckets, 5)
	assert.Equal(t, 2024, buckets[0].Year)
	assert.Equal(t, time.April, buckets[0].Month)

	last := buckets[len(buckets)-1]
	assert.Equal(t, 2023, last.Year)
	assert.Equal(t, time.April, last.Month)
	assert.Equal(t, 220.0, last.Total)
	assert.Equal(t, 110.0, last.Average)
	assert.Equal(t, 2, last.DaysRecorded)
	assert.Equal(t, "Apr 2023", last.Label())
}

func TestMonthlyIsIdempotentAndOrderIndependent(t *testing.T) {
	input := sampleReadings()
	snapshot := append([]domain.DailyReading(nil), input...)

	first := Monthly(input)
	second := Monthly(input)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, input, "input must not be mutated")

	shuffled := append([]domain.DailyReading(nil), input...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	assert.Equal(t, first, Monthly(shuffled))
}

func TestMonthlyRows(t *testing.T) {
	targets := performance.NewTargetSet([]domain.MonthlyTarget{{FiscalYear: 2023, Apr: 200}})
	rows := MonthlyRows(sampleReadings(), targets)
	last := rows[len(rows)-1]
	assert.Equal(t, "Apr 2023", last.Label)
	assert.Equal(t, 110.0, last.PR)
	assert.Equal(t, performance.StatusExcellent, last.Status)
	assert.Equal(t, 2, last.DaysRecorded)
}

func TestFiscalYearRows(t *testing.T) {
	target := &domain.MonthlyTarget{FiscalYear: 2023, Apr: 200, Jan: 100, Mar: 100}
	rows := FiscalYear(sampleReadings(), target, 2023)
	require.Len(t, rows, 12)
	assert.Equal(t, "APR", rows[0].Label)
	assert.Equal(t, "MAR", rows[11].Label)
	assert.Equal(t, 220.0, rows[0].Actual)
	assert.Equal(t, 110.0, rows[0].PR)
	assert.Equal(t, 60.0, rows[9].Actual)
	assert.Equal(t, performance.StatusPoor, rows[9].Status)
	assert.Equal(t, 90.0, rows[11].Actual)
	assert.Equal(t, performance.StatusExcellent, rows[11].Status)
	assert.Equal(t, 80.0, rows[1].Actual)
	assert.Equal(t, 0.0, rows[1].Target)
	assert.Equal(t, 0.0, rows[1].PR)

	for _, r := range rows {
		assert.False(t, math.IsNaN(r.PR))
	}

	noTarget := FiscalYear(sampleReadings(), nil, 2023)
	for _, r := range noTarget {
		assert.Equal(t, 0.0, r.Target)
		assert.Equal(t, 0.0, r.PR)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]domain.AggregateRow{
		{Actual: 90, Target: 100},
		{Actual: 80, Target: 100},
	})
	assert.Equal(t, 170.0, s.Actual)
	assert.Equal(t, 85.0, s.PR)
	assert.Equal(t, performance.StatusGood, s.Status)

	empty := Summarize(nil)
	assert.Equal(t, 0.0, empty.PR)
	assert.Equal(t, performance.StatusPoor, empty.Status)
}

func TestYearly(t *testing.T) {
	years := Yearly(sampleReadings())
	require.Len(t, years, 2)
	assert.Equal(t, 2024, years[0].Year)
	assert.Equal(t, 260.0, years[0].Total)
	assert.Equal(t, 3, years[0].DaysRecorded)
	assert.Equal(t, 2023, years[1].Year)
	assert.Equal(t, 300.0, years[1].Total)
	assert.Equal(t, 100.0, years[1].AvgDaily)
}

func TestTrendNeedsFullWindow(t *testing.T) {
	assert.Empty(t, Trend(sampleReadings()[:2], 7))
	assert.Empty(t, Trend(sampleReadings(), 0))
}

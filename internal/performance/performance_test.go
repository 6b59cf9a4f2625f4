package performance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(500, 0))
	assert.Equal(t, 0.0, Ratio(500, -10))
	assert.Equal(t, 0.0, Ratio(math.NaN(), 10))
	assert.InDelta(t, 50.0, Ratio(50, 100), 1e-9)
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, StatusExcellent, Classify(90))
	assert.Equal(t, StatusGood, Classify(89.999))
	assert.Equal(t, StatusGood, Classify(80))
	assert.Equal(t, StatusPoor, Classify(79.999))
	assert.Equal(t, StatusPoor, Classify(0))
	assert.Equal(t, StatusExcellent, Classify(140))
}

func TestDailyTargetProRation(t *testing.T) {
	target := &domain.MonthlyTarget{Jan: 3100, Feb: 2800}
	assert.Equal(t, 100.0, DailyTarget(target, date(2024, time.January, 10)))
	assert.Equal(t, 100.0, DailyTarget(target, date(2023, time.February, 10)))
	assert.InDelta(t, 2800.0/29, DailyTarget(target, date(2024, time.February, 10)), 1e-9)
	assert.Equal(t, 0.0, DailyTarget(nil, date(2024, time.January, 10)))
}

func TestResolve(t *testing.T) {
	target := &domain.MonthlyTarget{FiscalYear: 2023, Apr: 3100}
	r := Resolve(target, date(2023, time.April, 15))
	assert.True(t, r.Found)
	assert.Equal(t, 2023, r.FiscalYear)
	assert.Equal(t, fiscal.Apr, r.Key)
	assert.InDelta(t, 103.333, r.DailyTarget, 1e-3)

	miss := Resolve(nil, date(2024, time.February, 10))
	assert.False(t, miss.Found)
	assert.Equal(t, 2023, miss.FiscalYear)
	assert.Zero(t, miss.DailyTarget)
}

func TestEvaluateEndToEndNumbers(t *testing.T) {
	target := &domain.MonthlyTarget{FiscalYear: 2023, Apr: 3100}
	daily := DailyTarget(target, date(2023, time.April, 15))

	good := Evaluate(90, daily)
	assert.InDelta(t, 87.1, good.PR, 0.05)
	assert.Equal(t, StatusGood, good.Status)

	poor := Evaluate(40, daily)
	assert.InDelta(t, 38.7, poor.PR, 0.05)
	assert.Equal(t, StatusPoor, poor.Status)
}

func TestTargetSetAcrossFiscalBoundary(t *testing.T) {
	set := NewTargetSet([]domain.MonthlyTarget{
		{FiscalYear: 2022, Mar: 3100},
		{FiscalYear: 2023, Apr: 3000},
	})
	assert.Equal(t, 100.0, set.Daily(date(2023, time.March, 31)))
	assert.Equal(t, 100.0, set.Daily(date(2023, time.April, 1)))
	assert.Equal(t, 0.0, set.Daily(date(2024, time.April, 1)))
	assert.Equal(t, 3100.0, set.Monthly(2023, time.March))
	require.NotNil(t, set.For(2023))
}

func TestFiscalYears(t *testing.T) {
	assert.Equal(t, []int{2022, 2023}, FiscalYears(date(2023, time.March, 1), date(2023, time.May, 1)))
	assert.Equal(t, []int{2023}, FiscalYears(date(2023, time.May, 1), date(2023, time.May, 1)))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 87.1, Round2(87.096))
	assert.Equal(t, 0.0, Round2(math.Inf(1)))
}

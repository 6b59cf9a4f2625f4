// Package performance turns monthly targets into daily targets and scores
// actual generation against them.
package performance

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

const (
	StatusExcellent = "Excellent"
	StatusGood      = "Good"
	StatusPoor      = "Poor"

	excellentFrom = 90.0
	goodFrom      = 80.0
)

// Ratio is actual/target as a percentage, 0 when there is no positive target.
func Ratio(actual, target float64) float64 {
	if !(target > 0) || math.IsInf(target, 0) || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return 0
	}
	return actual / target * 100
}

// Classify maps a PR onto its band.
func Classify(pr float64) string {
	switch {
	case pr >= excellentFrom:
		return StatusExcellent
	case pr >= goodFrom:
		return StatusGood
	default:
		return StatusPoor
	}
}

// Score is the PR and band of one comparison.
type Score struct {
	PR     float64
	Status string
}

func Evaluate(actual, target float64) Score {
	pr := Ratio(actual, target)
	return Score{PR: pr, Status: Classify(pr)}
}

// Round2 rounds half away from zero to two decimals for presentation.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// DailyTarget pro-rates the target of the month containing date.
// A nil target document yields 0.
func DailyTarget(target *domain.MonthlyTarget, date time.Time) float64 {
	if target == nil {
		return 0
	}
	monthly := target.Get(fiscal.MonthKeyOf(date))
	return monthly / float64(fiscal.DaysInMonth(date.Year(), date.Month()))
}

// Resolution is the outcome of resolving the target for one day.
type Resolution struct {
	FiscalYear  int
	Key         fiscal.MonthKey
	Found       bool
	MonthTarget float64
	DailyTarget float64
}

// Resolve pro-rates the fiscal-year target document (possibly nil) for date.
func Resolve(target *domain.MonthlyTarget, date time.Time) Resolution {
	r := Resolution{
		FiscalYear: fiscal.YearOf(date),
		Key:        fiscal.MonthKeyOf(date),
		Found:      target != nil,
	}
	if target != nil {
		r.MonthTarget = target.Get(r.Key)
		r.DailyTarget = DailyTarget(target, date)
	}
	return r
}

// TargetSet indexes target documents of one site by fiscal year so that
// ranges crossing a fiscal boundary resolve each day against its own year.
type TargetSet map[int]*domain.MonthlyTarget

func NewTargetSet(targets []domain.MonthlyTarget) TargetSet {
	set := make(TargetSet, len(targets))
	for i := range targets {
		t := targets[i]
		set[t.FiscalYear] = &t
	}
	return set
}

func (s TargetSet) For(fy int) *domain.MonthlyTarget { return s[fy] }

// Daily resolves the daily target for date, 0 when no document exists.
func (s TargetSet) Daily(date time.Time) float64 {
	return DailyTarget(s[fiscal.YearOf(date)], date)
}

// Monthly returns the monthly target for a calendar year and month.
func (s TargetSet) Monthly(year int, month time.Month) float64 {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s[fiscal.YearOf(d)].Get(fiscal.KeyFor(month))
}

// FiscalYears lists the fiscal years touched by [start, end].
func FiscalYears(start, end time.Time) []int {
	from, to := fiscal.YearOf(start), fiscal.YearOf(end)
	if to < from {
		from, to = to, from
	}
	out := make([]int, 0, to-from+1)
	for fy := from; fy <= to; fy++ {
		out = append(out, fy)
	}
	return out
}

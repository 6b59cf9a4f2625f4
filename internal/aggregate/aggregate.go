// Package aggregate builds the daily, monthly, yearly and fleet views over
// stored readings. Every function is pure: inputs are never mutated and the
// same inputs always produce the same rows.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
)

const dateLayout = "2006-01-02"

// chronological returns a sorted copy so that float sums do not depend on
// the order the store returned rows in.
func chronological(readings []domain.DailyReading) []domain.DailyReading {
	out := make([]domain.DailyReading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		return out[i].GenerationKWh < out[j].GenerationKWh
	})
	return out
}

func points(readings []domain.DailyReading) []aggregator.Point {
	pts := make([]aggregator.Point, len(readings))
	for i, r := range readings {
		pts[i] = aggregator.Point{Value: r.GenerationKWh, Timestamp: r.Date}
	}
	return pts
}

// bucket accumulates readings of one group.
type bucket struct {
	readings []domain.DailyReading
}

func (b *bucket) total() float64 {
	if len(b.readings) == 0 {
		return 0
	}
	return aggregator.Sum(points(b.readings))
}

func (b *bucket) average() float64 {
	if len(b.readings) == 0 {
		return 0
	}
	return aggregator.Average(points(b.readings))
}

func row(label string, actual, target float64) domain.AggregateRow {
	score := performance.Evaluate(actual, target)
	return domain.AggregateRow{
		Label:  label,
		Actual: performance.Round2(actual),
		Target: performance.Round2(target),
		PR:     performance.Round2(score.PR),
		Status: score.Status,
	}
}

// Daily scores each reading against its pro-rated target, newest first.
func Daily(readings []domain.DailyReading, targets performance.TargetSet) []domain.AggregateRow {
	sorted := chronological(readings)
	rows := make([]domain.AggregateRow, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		d := r.Date
		out := row(d.Format(dateLayout), r.GenerationKWh, targets.Daily(d))
		out.Date = &d
		rows = append(rows, out)
	}
	return rows
}

// Chronological reverses a newest-first view into a copy ordered oldest first.
func Chronological(rows []domain.AggregateRow) []domain.AggregateRow {
	out := make([]domain.AggregateRow, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

// Trend is a moving average of daily generation in date order.
func Trend(readings []domain.DailyReading, window int) []float64 {
	if window <= 0 || len(readings) < window {
		return []float64{}
	}
	return aggregator.MovingAverage(points(chronological(readings)), window)
}

// MonthBucket summarises one calendar month of a single site.
type MonthBucket struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	Total        float64    `json:"total"`
	Average      float64    `json:"average"`
	DaysRecorded int        `json:"days_recorded"`
}

func (m MonthBucket) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String()[:3], m.Year)
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) after(o monthKey) bool {
	if k.year != o.year {
		return k.year > o.year
	}
	return k.month > o.month
}

// Monthly groups readings by calendar (year, month), newest first.
func Monthly(readings []domain.DailyReading) []MonthBucket {
	groups := map[monthKey]*bucket{}
	for _, r := range chronological(readings) {
		k := monthKey{r.Date.Year(), r.Date.Month()}
		b, ok := groups[k]
		if !ok {
			b = &bucket{}
			groups[k] = b
		}
		b.readings = append(b.readings, r)
	}
	keys := make([]monthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].after(keys[j]) })

	out := make([]MonthBucket, 0, len(keys))
	for _, k := range keys {
		b := groups[k]
		out = append(out, MonthBucket{
			Year:         k.year,
			Month:        k.month,
			Total:        b.total(),
			Average:      b.average(),
			DaysRecorded: len(b.readings),
		})
	}
	return out
}

// MonthlyRows scores each monthly bucket against its monthly target.
func MonthlyRows(readings []domain.DailyReading, targets performance.TargetSet) []domain.AggregateRow {
	buckets := Monthly(readings)
	rows := make([]domain.AggregateRow, 0, len(buckets))
	for _, b := range buckets {
		r := row(b.Label(), b.Total, targets.Monthly(b.Year, b.Month))
		r.Average = performance.Round2(b.Average)
		r.DaysRecorded = b.DaysRecorded
		rows = append(rows, r)
	}
	return rows
}

// FiscalYear returns twelve rows APR..MAR for fy. Actuals sum the readings
// of that calendar month; readings outside the fiscal year are ignored.
func FiscalYear(readings []domain.DailyReading, target *domain.MonthlyTarget, fy int) []domain.AggregateRow {
	groups := map[fiscal.MonthKey]*bucket{}
	for _, r := range chronological(readings) {
		if fiscal.YearOf(r.Date) != fy {
			continue
		}
		k := fiscal.MonthKeyOf(r.Date)
		b, ok := groups[k]
		if !ok {
			b = &bucket{}
			groups[k] = b
		}
		b.readings = append(b.readings, r)
	}

	rows := make([]domain.AggregateRow, 0, 12)
	for _, k := range fiscal.Order() {
		b := groups[k]
		if b == nil {
			b = &bucket{}
		}
		r := row(k.Label(), b.total(), target.Get(k))
		r.DaysRecorded = len(b.readings)
		rows = append(rows, r)
	}
	return rows
}

// Summary is the headline of a dashboard view.
type Summary struct {
	Actual float64 `json:"actual"`
	Target float64 `json:"target"`
	PR     float64 `json:"pr"`
	Status string  `json:"status"`
}

// Summarize computes the overall PR as the ratio of summed actual to summed target.
func Summarize(rows []domain.AggregateRow) Summary {
	var actual, target float64
	for _, r := range rows {
		actual += r.Actual
		target += r.Target
	}
	score := performance.Evaluate(actual, target)
	return Summary{
		Actual: performance.Round2(actual),
		Target: performance.Round2(target),
		PR:     performance.Round2(score.PR),
		Status: score.Status,
	}
}

// YearBucket summarises one calendar year of a single site.
type YearBucket struct {
	Year         int     `json:"year"`
	Total        float64 `json:"total"`
	AvgDaily     float64 `json:"avg_daily"`
	DaysRecorded int     `json:"days_recorded"`
}

func groupByYear(readings []domain.DailyReading) map[int]*bucket {
	groups := map[int]*bucket{}
	for _, r := range readings {
		y := r.Date.Year()
		b, ok := groups[y]
		if !ok {
			b = &bucket{}
			groups[y] = b
		}
		b.readings = append(b.readings, r)
	}
	return groups
}

// Yearly groups a single site's readings by calendar year, newest first.
func Yearly(readings []domain.DailyReading) []YearBucket {
	groups := groupByYear(chronological(readings))
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]YearBucket, 0, len(years))
	for _, y := range years {
		b := groups[y]
		out = append(out, YearBucket{Year: y, Total: b.total(), AvgDaily: b.average(), DaysRecorded: len(b.readings)})
	}
	return out
}

// Package forecast produces the synthetic seven-day generation outlook shown
// next to historical data. The outlook depends only on the calendar, a
// seasonality table and a random source; it never reads actuals.
package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

const (
	Horizon = 7

	// DefaultBaselineMonthlyKWh is a fixed fleet-wide reference, not scaled by site capacity.
	DefaultBaselineMonthlyKWh = 12000.0

	jitterFloor = 0.9
	jitterSpan  = 0.2
)

// Table is the immutable seasonality configuration. Seasonality is indexed Jan..Dec.
type Table struct {
	BaselineMonthlyKWh float64
	Seasonality        [12]float64
}

// DefaultTable returns the built-in monsoon-shaped curve.
func DefaultTable() Table {
	return Table{
		BaselineMonthlyKWh: DefaultBaselineMonthlyKWh,
		Seasonality:        [12]float64{0.75, 0.9, 1.1, 1.2, 1.25, 0.8, 0.6, 0.65, 0.9, 1.0, 0.85, 0.8},
	}
}

// Multiplier returns the seasonal factor for m, 1.0 when the entry is unusable.
func (t Table) Multiplier(m time.Month) float64 {
	if m < time.January || m > time.December {
		return 1.0
	}
	v := t.Seasonality[m-1]
	if !(v > 0) || math.IsInf(v, 0) {
		return 1.0
	}
	return v
}

// DailyTarget is the seasonal baseline spread across the days of the month.
func (t Table) DailyTarget(day time.Time) float64 {
	return t.BaselineMonthlyKWh * t.Multiplier(day.Month()) / float64(fiscal.DaysInMonth(day.Year(), day.Month()))
}

type tableFile struct {
	BaselineMonthlyKWh float64            `yaml:"baseline_monthly_kwh"`
	Seasonality        map[string]float64 `yaml:"seasonality"`
}

// LoadTable reads a YAML override. Months missing from the file keep their default factor.
func LoadTable(path string) (Table, error) {
	table := DefaultTable()
	raw, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read forecast table: %w", err)
	}
	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return table, fmt.Errorf("parse forecast table: %w", err)
	}
	if file.BaselineMonthlyKWh > 0 {
		table.BaselineMonthlyKWh = file.BaselineMonthlyKWh
	}
	for name, v := range file.Seasonality {
		key, ok := fiscal.ParseMonthName(name)
		if !ok {
			return table, fmt.Errorf("parse forecast table: unknown month %q", strings.TrimSpace(name))
		}
		table.Seasonality[key.Month()-1] = v
	}
	return table, nil
}

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Generator builds forecast points. Zero values of Rand and Now fall back to
// the process-wide random source and the wall clock.
type Generator struct {
	Table Table
	Rand  Source
	Now   func() time.Time
}

func New(table Table) *Generator {
	return &Generator{Table: table, Rand: globalSource{}, Now: time.Now}
}

// Generate returns Horizon points for the days after today, each at local midnight.
func (g *Generator) Generate() []domain.ForecastPoint {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	var src Source = globalSource{}
	if g.Rand != nil {
		src = g.Rand
	}

	today := now()
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	points := make([]domain.ForecastPoint, 0, Horizon)
	for i := 1; i <= Horizon; i++ {
		day := midnight.AddDate(0, 0, i)
		target := g.Table.DailyTarget(day)
		predicted := target * (jitterFloor + src.Float64()*jitterSpan)
		points = append(points, domain.ForecastPoint{
			Label:      fmt.Sprintf("%s %d", day.Weekday().String()[:3], day.Day()),
			Date:       day,
			Target:     math.Round(target*100) / 100,
			Predicted:  math.Round(predicted*100) / 100,
			IsForecast: true,
		})
	}
	return points
}

// Package simulate produces plausible demo data: seasonal targets sized to a
// site's capacity and daily readings scattered around them.
package simulate

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
)

const (
	SunHoursPerDay = 4.0
	DaysPerMonth   = 30.0

	weatherFloor = 0.8
	weatherSpan  = 0.4
	cloudChance  = 0.1
	cloudFactor  = 0.5
)

// DemoSites are the plants created by a fresh seed.
func DemoSites() []domain.Site {
	return []domain.Site{
		{Name: "Radiant Valley Solar", SiteNumber: 2000, CapacityKWp: 5000, Location: "Rajasthan"},
		{Name: "Eco-Volt Industrial", SiteNumber: 2001, CapacityKWp: 1200, Location: "Gujarat"},
		{Name: "City Center Rooftop", SiteNumber: 2002, CapacityKWp: 250, Location: "Pune"},
	}
}

type Generator struct {
	Table forecast.Table
	Rand  forecast.Source
}

func New(table forecast.Table, src forecast.Source) *Generator {
	return &Generator{Table: table, Rand: src}
}

// Target sizes every month as capacity × sun hours × 30 days × seasonality, rounded to whole kWh.
func (g *Generator) Target(site domain.Site, fy int) domain.MonthlyTarget {
	t := domain.MonthlyTarget{SiteID: site.ID, FiscalYear: fy}
	base := site.CapacityKWp * SunHoursPerDay * DaysPerMonth
	for _, k := range fiscal.Order() {
		t.Set(k, math.Round(base*g.Table.Multiplier(k.Month())))
	}
	return t
}

// Generation draws one day's output: the daily target scaled by 80–120%
// weather, halved on one day in ten.
func (g *Generator) Generation(dailyTarget float64) float64 {
	v := dailyTarget * (weatherFloor + g.Rand.Float64()*weatherSpan)
	if g.Rand.Float64() < cloudChance {
		v *= cloudFactor
	}
	return performance.Round2(v)
}

// Readings fills [from, to] inclusive with one reading per day. Days without a
// target get no reading.
func (g *Generator) Readings(site domain.Site, targets performance.TargetSet, from, to time.Time) []domain.DailyReading {
	from, to = fiscal.Normalize(from), fiscal.Normalize(to)
	var out []domain.DailyReading
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		daily := targets.Daily(day)
		if daily <= 0 {
			continue
		}
		out = append(out, domain.DailyReading{
			SiteID:        site.ID,
			Date:          day,
			GenerationKWh: g.Generation(daily),
		})
	}
	return out
}

package aggregate

import (
	"sort"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/converter"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

func sortedSites(sites []domain.Site) []domain.Site {
	out := make([]domain.Site, len(sites))
	copy(out, sites)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SiteNumber < out[j].SiteNumber })
	return out
}

func bySite(readings []domain.DailyReading) map[int64][]domain.DailyReading {
	out := map[int64][]domain.DailyReading{}
	for _, r := range chronological(readings) {
		out[r.SiteID] = append(out[r.SiteID], r)
	}
	return out
}

// FleetYearRow is one (site, calendar year) bucket.
type FleetYearRow struct {
	SiteID       int64   `json:"site_id"`
	SiteName     string  `json:"site_name"`
	SiteNumber   int     `json:"site_number"`
	Year         int     `json:"year"`
	Total        float64 `json:"total"`
	AvgDaily     float64 `json:"avg_daily"`
	DaysRecorded int     `json:"days_recorded"`
}

// FleetYearly returns every site's yearly totals, year descending then site name ascending.
// Readings of unknown sites are dropped.
func FleetYearly(sites []domain.Site, readings []domain.DailyReading) []FleetYearRow {
	grouped := bySite(readings)
	var out []FleetYearRow
	for _, s := range sites {
		for _, y := range Yearly(grouped[s.ID]) {
			out = append(out, FleetYearRow{
				SiteID:       s.ID,
				SiteName:     s.Name,
				SiteNumber:   s.SiteNumber,
				Year:         y.Year,
				Total:        y.Total,
				AvgDaily:     y.AvgDaily,
				DaysRecorded: y.DaysRecorded,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		if out[i].SiteName != out[j].SiteName {
			return out[i].SiteName < out[j].SiteName
		}
		return out[i].SiteNumber < out[j].SiteNumber
	})
	return out
}

// FleetMonthRow is one (site, calendar month) bucket.
type FleetMonthRow struct {
	SiteID       int64      `json:"site_id"`
	SiteName     string     `json:"site_name"`
	SiteNumber   int        `json:"site_number"`
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	Total        float64    `json:"total"`
	Average      float64    `json:"average"`
	DaysRecorded int        `json:"days_recorded"`
}

// FleetMonthly returns every site's monthly totals, newest month first then site name.
func FleetMonthly(sites []domain.Site, readings []domain.DailyReading) []FleetMonthRow {
	grouped := bySite(readings)
	var out []FleetMonthRow
	for _, s := range sites {
		for _, m := range Monthly(grouped[s.ID]) {
			out = append(out, FleetMonthRow{
				SiteID:       s.ID,
				SiteName:     s.Name,
				SiteNumber:   s.SiteNumber,
				Year:         m.Year,
				Month:        m.Month,
				Total:        m.Total,
				Average:      m.Average,
				DaysRecorded: m.DaysRecorded,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := monthKey{out[i].Year, out[i].Month}, monthKey{out[j].Year, out[j].Month}
		if a != b {
			return a.after(b)
		}
		return out[i].SiteName < out[j].SiteName
	})
	return out
}

// OverviewRow is the lifetime production of one site.
type OverviewRow struct {
	SiteID       int64   `json:"site_id"`
	SiteName     string  `json:"site_name"`
	SiteNumber   int     `json:"site_number"`
	CapacityKWp  float64 `json:"capacity_kwp"`
	LifetimeKWh  float64 `json:"lifetime_kwh"`
	LifetimeMWh  float64 `json:"lifetime_mwh"`
	DaysRecorded int     `json:"days_recorded"`
	// SpecificYield is kWh generated per installed kWp.
	SpecificYield float64 `json:"specific_yield"`
}

// FleetOverview returns one row per site ordered by site number. Sites with no readings report zero.
func FleetOverview(sites []domain.Site, readings []domain.DailyReading) []OverviewRow {
	grouped := bySite(readings)
	conv := &converter.EnergyConverter{}
	out := make([]OverviewRow, 0, len(sites))
	for _, s := range sortedSites(sites) {
		b := &bucket{readings: grouped[s.ID]}
		total := b.total()
		r := OverviewRow{
			SiteID:       s.ID,
			SiteName:     s.Name,
			SiteNumber:   s.SiteNumber,
			CapacityKWp:  s.CapacityKWp,
			LifetimeKWh:  total,
			LifetimeMWh:  conv.KWhToMWh(total),
			DaysRecorded: len(b.readings),
		}
		if s.CapacityKWp > 0 {
			r.SpecificYield = total / s.CapacityKWp
		}
		out = append(out, r)
	}
	return out
}

// CellSource says where a matrix value came from.
type CellSource int

const (
	CellEmpty CellSource = iota
	// CellDerived is a sum of daily readings.
	CellDerived
	// CellDirect is a monthly record entered directly; it always wins.
	CellDirect
)

func (s CellSource) String() string {
	switch s {
	case CellDirect:
		return "direct"
	case CellDerived:
		return "derived"
	default:
		return "empty"
	}
}

// Cell is one site-month of the matrix. Only Value() turns it into a number.
type Cell struct {
	Key    fiscal.MonthKey
	Source CellSource
	Record *domain.MonthlyRecord
	Sum    float64
	Days   int
}

func (c Cell) Value() float64 {
	switch c.Source {
	case CellDirect:
		return c.Record.TotalKWh
	case CellDerived:
		return c.Sum
	default:
		return 0
	}
}

// MatrixRow is one site across the twelve fiscal months, apr first.
type MatrixRow struct {
	Site  domain.Site
	Cells [12]Cell
}

func (r MatrixRow) Values() []float64 {
	out := make([]float64, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Value()
	}
	return out
}

func (r MatrixRow) Total() float64 {
	var sum float64
	for _, c := range r.Cells {
		sum += c.Value()
	}
	return sum
}

// Matrix builds the fleet grid for fiscal year fy. For each cell a direct
// monthly record takes precedence over summed daily readings.
func Matrix(sites []domain.Site, records []domain.MonthlyRecord, readings []domain.DailyReading, fy int) []MatrixRow {
	type cellKey struct {
		site int64
		key  fiscal.MonthKey
	}
	direct := map[cellKey]*domain.MonthlyRecord{}
	for i := range records {
		rec := records[i]
		d := time.Date(rec.Year, rec.CalendarMonth(), 1, 0, 0, 0, 0, time.UTC)
		if fiscal.YearOf(d) != fy {
			continue
		}
		direct[cellKey{rec.SiteID, fiscal.KeyFor(rec.CalendarMonth())}] = &rec
	}
	derived := map[cellKey]*bucket{}
	for _, r := range chronological(readings) {
		if fiscal.YearOf(r.Date) != fy {
			continue
		}
		k := cellKey{r.SiteID, fiscal.MonthKeyOf(r.Date)}
		b, ok := derived[k]
		if !ok {
			b = &bucket{}
			derived[k] = b
		}
		b.readings = append(b.readings, r)
	}

	rows := make([]MatrixRow, 0, len(sites))
	for _, s := range sortedSites(sites) {
		row := MatrixRow{Site: s}
		for i, key := range fiscal.Order() {
			ck := cellKey{s.ID, key}
			cell := Cell{Key: key}
			if b, ok := derived[ck]; ok {
				cell.Source = CellDerived
				cell.Sum = b.total()
				cell.Days = len(b.readings)
			}
			if rec, ok := direct[ck]; ok {
				cell.Source = CellDirect
				cell.Record = rec
			}
			row.Cells[i] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

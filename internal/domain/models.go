package domain

import (
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

type Site struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	SiteNumber  int       `db:"site_number" json:"site_number"`
	CapacityKWp float64   `db:"capacity_kwp" json:"capacity_kwp"`
	Location    string    `db:"location" json:"location,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MonthlyTarget holds the twelve expected monthly generation totals (kWh)
// of one site for one fiscal year.
type MonthlyTarget struct {
	ID         int64     `db:"id" json:"id"`
	SiteID     int64     `db:"site_id" json:"site_id"`
	FiscalYear int       `db:"fiscal_year" json:"fiscal_year"`
	Apr        float64   `db:"apr" json:"apr"`
	May        float64   `db:"may" json:"may"`
	Jun        float64   `db:"jun" json:"jun"`
	Jul        float64   `db:"jul" json:"jul"`
	Aug        float64   `db:"aug" json:"aug"`
	Sep        float64   `db:"sep" json:"sep"`
	Oct        float64   `db:"oct" json:"oct"`
	Nov        float64   `db:"nov" json:"nov"`
	Dec        float64   `db:"dec" json:"dec"`
	Jan        float64   `db:"jan" json:"jan"`
	Feb        float64   `db:"feb" json:"feb"`
	Mar        float64   `db:"mar" json:"mar"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func (t *MonthlyTarget) field(k fiscal.MonthKey) *float64 {
	switch k {
	case fiscal.Apr:
		return &t.Apr
	case fiscal.May:
		return &t.May
	case fiscal.Jun:
		return &t.Jun
	case fiscal.Jul:
		return &t.Jul
	case fiscal.Aug:
		return &t.Aug
	case fiscal.Sep:
		return &t.Sep
	case fiscal.Oct:
		return &t.Oct
	case fiscal.Nov:
		return &t.Nov
	case fiscal.Dec:
		return &t.Dec
	case fiscal.Jan:
		return &t.Jan
	case fiscal.Feb:
		return &t.Feb
	case fiscal.Mar:
		return &t.Mar
	}
	return nil
}

// Get returns the target for the month, 0 for a nil target or unknown key.
func (t *MonthlyTarget) Get(k fiscal.MonthKey) float64 {
	if t == nil {
		return 0
	}
	if p := t.field(k); p != nil {
		return *p
	}
	return 0
}

func (t *MonthlyTarget) Set(k fiscal.MonthKey, v float64) {
	if p := t.field(k); p != nil {
		*p = v
	}
}

// Total sums all twelve months.
func (t *MonthlyTarget) Total() float64 {
	var sum float64
	for _, k := range fiscal.Order() {
		sum += t.Get(k)
	}
	return sum
}

// DailyReading is one day's generation. Date is always midnight UTC of the civil day.
type DailyReading struct {
	ID            int64     `db:"id" json:"id"`
	SiteID        int64     `db:"site_id" json:"site_id"`
	Date          time.Time `db:"reading_date" json:"date"`
	GenerationKWh float64   `db:"generation_kwh" json:"generation_kwh"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MonthlyRecord is a directly entered monthly total. Month is 0 for January.
type MonthlyRecord struct {
	ID              int64     `db:"id" json:"id"`
	SiteID          int64     `db:"site_id" json:"site_id"`
	Year            int       `db:"year" json:"year"`
	Month           int       `db:"month" json:"month"`
	TotalKWh        float64   `db:"total_kwh" json:"total_generation"`
	TargetKWh       *float64  `db:"target_kwh" json:"target,omitempty"`
	PR              *float64  `db:"pr" json:"pr,omitempty"`
	PeakKWh         *float64  `db:"peak_kwh" json:"peak_generation,omitempty"`
	AvgDailyKWh     *float64  `db:"avg_daily_kwh" json:"avg_daily_generation,omitempty"`
	DaysOperational *int      `db:"days_operational" json:"days_operational,omitempty"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CalendarMonth converts the zero-based month index.
func (r MonthlyRecord) CalendarMonth() time.Month { return time.Month(r.Month + 1) }

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

type Category string

const (
	CategoryPerformance   Category = "PERFORMANCE"
	CategoryEquipment     Category = "EQUIPMENT"
	CategoryCommunication Category = "COMMUNICATION"
)

type Alert struct {
	ID        string    `db:"id" json:"id"`
	SiteID    int64     `db:"site_id" json:"site_id"`
	Severity  Severity  `db:"severity" json:"severity"`
	Category  Category  `db:"category" json:"category"`
	Message   string    `db:"message" json:"message"`
	Resolved  bool      `db:"resolved" json:"resolved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AggregateRow is one bucket of a derived view. All numbers are finite.
type AggregateRow struct {
	Label        string     `json:"label"`
	Date         *time.Time `json:"date,omitempty"`
	Actual       float64    `json:"actual"`
	Target       float64    `json:"target"`
	PR           float64    `json:"pr"`
	Status       string     `json:"status"`
	Average      float64    `json:"average,omitempty"`
	DaysRecorded int        `json:"days_recorded,omitempty"`
}

type ForecastPoint struct {
	Label      string    `json:"label"`
	Date       time.Time `json:"date"`
	Target     float64   `json:"target"`
	Predicted  float64   `json:"actual"`
	IsForecast bool      `json:"is_forecast"`
}

// BulkResult reports the outcome of a batched upsert.
type BulkResult struct {
	Matched  int `json:"matched"`
	Upserted int `json:"upserted"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
	Skipped  int `json:"skipped,omitempty"`
}

// ReadingInput is one row of a bulk reading write.
type ReadingInput struct {
	Date          time.Time `json:"date"`
	GenerationKWh float64   `json:"amount"`
}

// ReadingMessage is the MQTT payload of a single daily reading.
type ReadingMessage struct {
	SiteNumber    int     `json:"site_number"`
	Date          string  `json:"date"`
	GenerationKWh float64 `json:"generation_kwh"`
}

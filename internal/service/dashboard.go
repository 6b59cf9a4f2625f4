package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/aggregate"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

const (
	GranularityMonthly = "monthly"
	GranularityDaily   = "daily"

	trendWindow = 7
	dayLayout   = "2006-01-02"
)

// Dashboard is the response of the dashboard view. Forecast is regenerated on
// every request and never cached.
type Dashboard struct {
	SiteID      int64                  `json:"site_id"`
	Granularity string                 `json:"granularity"`
	Year        int                    `json:"year,omitempty"`
	Start       string                 `json:"start,omitempty"`
	End         string                 `json:"end,omitempty"`
	Data        []domain.AggregateRow  `json:"data"`
	Summary     aggregate.Summary      `json:"summary"`
	Trend       []float64              `json:"trend,omitempty"`
	Forecast    []domain.ForecastPoint `json:"forecast"`
}

// MatrixCell is a resolved matrix value with its provenance.
type MatrixCell struct {
	Month  string  `json:"month"`
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

type MatrixView struct {
	SiteID     int64        `json:"site_id"`
	SiteNumber int          `json:"site_number"`
	SiteName   string       `json:"site_name"`
	Months     []MatrixCell `json:"months"`
	Total      float64      `json:"total"`
}

type DashboardService struct {
	store    repository.Store
	cache    *cache.Cache
	metrics  *metrics.Metrics
	forecast *forecast.Generator
	log      zerolog.Logger
}

// cached loads key into dst, or fills dst with build and stores it. Cache
// errors degrade to a rebuild.
func (s *DashboardService) cached(ctx context.Context, key string, dst interface{}, build func() error) (bool, error) {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if hit {
		return true, nil
	}
	if err := build(); err != nil {
		return false, err
	}
	if err := s.cache.Set(ctx, key, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return false, nil
}

// ByFiscalYear returns twelve APR..MAR rows of the site's fiscal year.
func (s *DashboardService) ByFiscalYear(ctx context.Context, siteID int64, fy int) (*Dashboard, error) {
	if fy < minFiscalYear {
		return nil, invalid("year must be %d or later", minFiscalYear)
	}
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}

	var d Dashboard
	key := cache.SiteKey(siteID, "dashboard", "fy", strconv.Itoa(fy))
	hit, err := s.cached(ctx, key, &d, func() error {
		target, err := s.store.FindTarget(ctx, siteID, fy)
		if err != nil {
			return err
		}
		start, end := fiscal.Range(fy)
		last := end.AddDate(0, 0, -1)
		readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{SiteID: siteID, From: &start, To: &last})
		if err != nil {
			return err
		}
		rows := aggregate.FiscalYear(readings, target, fy)
		d = Dashboard{
			SiteID:      siteID,
			Granularity: GranularityMonthly,
			Year:        fy,
			Data:        rows,
			Summary:     aggregate.Summarize(rows),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.DashboardServed(GranularityMonthly, hit)
	d.Forecast = s.forecast.Generate()
	return &d, nil
}

// ByRange returns one row per recorded day in [start, end], oldest first.
func (s *DashboardService) ByRange(ctx context.Context, siteID int64, start, end time.Time) (*Dashboard, error) {
	start, end = fiscal.Normalize(start), fiscal.Normalize(end)
	if end.Before(start) {
		return nil, invalid("end date is before start date")
	}
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}

	var d Dashboard
	key := cache.SiteKey(siteID, "dashboard", "range", start.Format(dayLayout), end.Format(dayLayout))
	hit, err := s.cached(ctx, key, &d, func() error {
		targets, err := s.targetSet(ctx, siteID, start, end)
		if err != nil {
			return err
		}
		readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{SiteID: siteID, From: &start, To: &end})
		if err != nil {
			return err
		}
		rows := aggregate.Chronological(aggregate.Daily(readings, targets))
		d = Dashboard{
			SiteID:      siteID,
			Granularity: GranularityDaily,
			Start:       start.Format(dayLayout),
			End:         end.Format(dayLayout),
			Data:        rows,
			Summary:     aggregate.Summarize(rows),
			Trend:       aggregate.Trend(readings, trendWindow),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.DashboardServed(GranularityDaily, hit)
	d.Forecast = s.forecast.Generate()
	return &d, nil
}

func (s *DashboardService) targetSet(ctx context.Context, siteID int64, start, end time.Time) (performance.TargetSet, error) {
	years := performance.FiscalYears(start, end)
	docs, err := s.store.FindTargets(ctx, siteID, years[0], years[len(years)-1])
	if err != nil {
		return nil, err
	}
	return performance.NewTargetSet(docs), nil
}

// Forecast returns the seven-day outlook on its own.
func (s *DashboardService) Forecast() []domain.ForecastPoint {
	return s.forecast.Generate()
}

// SiteDaily scores a site's readings against their daily targets, newest first.
func (s *DashboardService) SiteDaily(ctx context.Context, siteID int64, from, to *time.Time) ([]domain.AggregateRow, error) {
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{SiteID: siteID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return []domain.AggregateRow{}, nil
	}
	targets, err := s.siteTargets(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return aggregate.Daily(readings, targets), nil
}

// SiteMonthly buckets a site's readings by calendar month, newest first.
func (s *DashboardService) SiteMonthly(ctx context.Context, siteID int64) ([]domain.AggregateRow, error) {
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	var rows []domain.AggregateRow
	_, err := s.cached(ctx, cache.SiteKey(siteID, "monthly"), &rows, func() error {
		readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{SiteID: siteID})
		if err != nil {
			return err
		}
		targets, err := s.siteTargets(ctx, siteID)
		if err != nil {
			return err
		}
		rows = aggregate.MonthlyRows(readings, targets)
		return nil
	})
	return rows, err
}

// SiteYearly buckets a site's readings by calendar year, newest first.
func (s *DashboardService) SiteYearly(ctx context.Context, siteID int64) ([]aggregate.YearBucket, error) {
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	var years []aggregate.YearBucket
	_, err := s.cached(ctx, cache.SiteKey(siteID, "yearly"), &years, func() error {
		readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{SiteID: siteID})
		if err != nil {
			return err
		}
		years = aggregate.Yearly(readings)
		return nil
	})
	return years, err
}

func (s *DashboardService) siteTargets(ctx context.Context, siteID int64) (performance.TargetSet, error) {
	docs, err := s.store.ListTargets(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return performance.NewTargetSet(docs), nil
}

func (s *DashboardService) fleet(ctx context.Context) ([]domain.Site, []domain.DailyReading, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, nil, err
	}
	readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{})
	if err != nil {
		return nil, nil, err
	}
	return sites, readings, nil
}

func (s *DashboardService) FleetOverview(ctx context.Context) ([]aggregate.OverviewRow, error) {
	var rows []aggregate.OverviewRow
	_, err := s.cached(ctx, cache.FleetKey("overview"), &rows, func() error {
		sites, readings, err := s.fleet(ctx)
		if err != nil {
			return err
		}
		rows = aggregate.FleetOverview(sites, readings)
		return nil
	})
	return rows, err
}

func (s *DashboardService) FleetYearly(ctx context.Context) ([]aggregate.FleetYearRow, error) {
	var rows []aggregate.FleetYearRow
	_, err := s.cached(ctx, cache.FleetKey("yearly"), &rows, func() error {
		sites, readings, err := s.fleet(ctx)
		if err != nil {
			return err
		}
		rows = aggregate.FleetYearly(sites, readings)
		if rows == nil {
			rows = []aggregate.FleetYearRow{}
		}
		return nil
	})
	return rows, err
}

func (s *DashboardService) FleetMonthly(ctx context.Context) ([]aggregate.FleetMonthRow, error) {
	var rows []aggregate.FleetMonthRow
	_, err := s.cached(ctx, cache.FleetKey("monthly"), &rows, func() error {
		sites, readings, err := s.fleet(ctx)
		if err != nil {
			return err
		}
		rows = aggregate.FleetMonthly(sites, readings)
		if rows == nil {
			rows = []aggregate.FleetMonthRow{}
		}
		return nil
	})
	return rows, err
}

// Matrix builds the raw site × fiscal-month grid of fy.
func (s *DashboardService) Matrix(ctx context.Context, fy int) ([]aggregate.MatrixRow, error) {
	if fy < minFiscalYear {
		return nil, invalid("year must be %d or later", minFiscalYear)
	}
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.RecordsForFiscalYear(ctx, fy)
	if err != nil {
		return nil, err
	}
	start, end := fiscal.Range(fy)
	last := end.AddDate(0, 0, -1)
	readings, err := s.store.FindReadings(ctx, repository.ReadingQuery{From: &start, To: &last})
	if err != nil {
		return nil, err
	}
	return aggregate.Matrix(sites, records, readings, fy), nil
}

// FleetMatrix is Matrix resolved to numbers for presentation.
func (s *DashboardService) FleetMatrix(ctx context.Context, fy int) ([]MatrixView, error) {
	var views []MatrixView
	_, err := s.cached(ctx, cache.FleetKey("matrix", strconv.Itoa(fy)), &views, func() error {
		rows, err := s.Matrix(ctx, fy)
		if err != nil {
			return err
		}
		views = make([]MatrixView, 0, len(rows))
		for _, r := range rows {
			v := MatrixView{
				SiteID:     r.Site.ID,
				SiteNumber: r.Site.SiteNumber,
				SiteName:   r.Site.Name,
				Total:      performance.Round2(r.Total()),
			}
			for _, c := range r.Cells {
				v.Months = append(v.Months, MatrixCell{
					Month:  c.Key.Label(),
					Value:  performance.Round2(c.Value()),
					Source: c.Source.String(),
				})
			}
			views = append(views, v)
		}
		return nil
	})
	return views, err
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/alerting"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

// ErrInvalid marks input the caller has to fix. The HTTP layer maps it to 400.
var ErrInvalid = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// invalidate drops a site's cached views after a durable write. Errors are logged, never returned.
func invalidate(ctx context.Context, c *cache.Cache, log zerolog.Logger, siteID int64) {
	if err := c.InvalidateSite(ctx, siteID); err != nil {
		log.Warn().Err(err).Int64("site_id", siteID).Msg("cache invalidation failed")
	}
}

// Deps are the collaborators shared by every service. Only Store is required.
type Deps struct {
	Store repository.Store
	// Alerts overrides the alert log of Store, e.g. with DynamoDB.
	Alerts    repository.AlertStore
	Notifiers []alerting.Notifier
	Cache     *cache.Cache
	Metrics   *metrics.Metrics
	Forecast  forecast.Table
	Archive   Archiver
	Log       zerolog.Logger
}

type Services struct {
	Sites     *SiteService
	Targets   *TargetService
	Readings  *ReadingService
	Records   *RecordService
	Dashboard *DashboardService
	Alerts    *AlertService
	Imports   *ImportService
	Exports   *ExportService
}

func New(d Deps) *Services {
	alerts := d.Alerts
	if alerts == nil {
		alerts = d.Store
	}
	if d.Forecast.BaselineMonthlyKWh == 0 {
		d.Forecast = forecast.DefaultTable()
	}
	trigger := alerting.NewTrigger(d.Store, alerts, d.Metrics, d.Log.With().Str("component", "alerting").Logger(), d.Notifiers...)

	readings := &ReadingService{
		store:   d.Store,
		trigger: trigger,
		cache:   d.Cache,
		metrics: d.Metrics,
		log:     d.Log.With().Str("component", "readings").Logger(),
	}
	dashboard := &DashboardService{
		store:    d.Store,
		cache:    d.Cache,
		metrics:  d.Metrics,
		forecast: forecast.New(d.Forecast),
		log:      d.Log.With().Str("component", "dashboard").Logger(),
	}
	return &Services{
		Sites:     &SiteService{store: d.Store, cache: d.Cache, log: d.Log},
		Targets:   &TargetService{store: d.Store, cache: d.Cache, log: d.Log},
		Readings:  readings,
		Records:   &RecordService{store: d.Store, cache: d.Cache, log: d.Log},
		Dashboard: dashboard,
		Alerts:    &AlertService{store: alerts},
		Imports: &ImportService{
			store:   d.Store,
			cache:   d.Cache,
			metrics: d.Metrics,
			log:     d.Log.With().Str("component", "import").Logger(),
		},
		Exports: &ExportService{
			store:     d.Store,
			dashboard: dashboard,
			archive:   d.Archive,
		},
	}
}

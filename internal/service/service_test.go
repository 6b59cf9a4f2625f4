package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository/memory"
)

type fixture struct {
	store *memory.Store
	svcs  *Services
	site  domain.Site
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setup(t *testing.T, deps Deps) *fixture {
	t.Helper()
	store := memory.New()
	deps.Store = store
	deps.Log = zerolog.Nop()
	svcs := New(deps)

	site := domain.Site{Name: "Rooftop A", SiteNumber: 7, CapacityKWp: 100}
	require.NoError(t, svcs.Sites.Create(context.Background(), &site))
	require.NoError(t, svcs.Targets.Upsert(context.Background(), &domain.MonthlyTarget{
		SiteID: site.ID, FiscalYear: 2023, Apr: 3100, Mar: 2800,
	}))
	return &fixture{store: store, svcs: svcs, site: site}
}

func (f *fixture) alerts(t *testing.T) []domain.Alert {
	t.Helper()
	out, err := f.store.ListAlerts(context.Background(), repository.AlertQuery{IncludeResolved: true})
	require.NoError(t, err)
	return out
}

func TestRecordScoresAndAlerts(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	res, err := f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 15), 90, metrics.SourceAPI)
	require.NoError(t, err)
	assert.Nil(t, res.Alert)

	res, err = f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 16), 40, metrics.SourceAPI)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	assert.Equal(t, domain.SeverityCritical, res.Alert.Severity)
	assert.Equal(t, domain.CategoryPerformance, res.Alert.Category)

	alerts, err := f.svcs.Alerts.List(ctx, repository.AlertQuery{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	d, err := f.svcs.Dashboard.ByRange(ctx, f.site.ID, day(2023, 4, 15), day(2023, 4, 16))
	require.NoError(t, err)
	require.Len(t, d.Data, 2)
	assert.Equal(t, "2023-04-15", d.Data[0].Label)
	assert.Equal(t, 103.33, d.Data[0].Target)
	assert.Equal(t, 87.1, d.Data[0].PR)
	assert.Equal(t, "Good", d.Data[0].Status)
	assert.Equal(t, 38.71, d.Data[1].PR)
	assert.Equal(t, "Poor", d.Data[1].Status)
}

func TestUpdateOntoTakenDayConflicts(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	_, err := f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 15), 90, metrics.SourceAPI)
	require.NoError(t, err)
	low, err := f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 16), 40, metrics.SourceAPI)
	require.NoError(t, err)
	require.Len(t, f.alerts(t), 1)

	_, err = f.svcs.Readings.Update(ctx, low.Reading.ID, day(2023, 4, 15), 50)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Len(t, f.alerts(t), 1)

	readings, err := f.svcs.Readings.List(ctx, f.site.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, day(2023, 4, 16), readings[0].Date)
	assert.Equal(t, 40.0, readings[0].GenerationKWh)
	assert.Equal(t, day(2023, 4, 15), readings[1].Date)
	assert.Equal(t, 90.0, readings[1].GenerationKWh)

	// rewriting its own day is fine and re-runs the trigger
	res, err := f.svcs.Readings.Update(ctx, low.Reading.ID, day(2023, 4, 16), 45)
	require.NoError(t, err)
	assert.Equal(t, 45.0, res.Reading.GenerationKWh)
	assert.NotNil(t, res.Alert)
}

// failingStore rejects reading writes and counts alert inserts.
type failingStore struct {
	*memory.Store
	created int
}

func (s *failingStore) UpsertReading(context.Context, int64, time.Time, float64) (*domain.DailyReading, error) {
	return nil, errors.New("disk full")
}

func (s *failingStore) CreateAlert(ctx context.Context, a *domain.Alert) error {
	s.created++
	return s.Store.CreateAlert(ctx, a)
}

func TestFailedWriteRaisesNoAlert(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New()}
	site := domain.Site{Name: "Rooftop A", SiteNumber: 7, CapacityKWp: 100}
	require.NoError(t, store.CreateSite(ctx, &site))
	require.NoError(t, store.UpsertTarget(ctx, &domain.MonthlyTarget{SiteID: site.ID, FiscalYear: 2023, Apr: 3100}))
	svcs := New(Deps{Store: store, Log: zerolog.Nop()})

	res, err := svcs.Readings.Record(ctx, site.ID, day(2023, 4, 16), 40, metrics.SourceAPI)
	assert.EqualError(t, err, "disk full")
	assert.Nil(t, res)
	assert.Zero(t, store.created)
}

func TestRecordSameDayOverwrites(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	_, err := f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 15), 90, metrics.SourceAPI)
	require.NoError(t, err)
	_, err = f.svcs.Readings.Record(ctx, f.site.ID, time.Date(2023, 4, 15, 18, 30, 0, 0, time.UTC), 95, metrics.SourceAPI)
	require.NoError(t, err)

	readings, err := f.svcs.Readings.List(ctx, f.site.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 95.0, readings[0].GenerationKWh)
}

func TestRecordRejectsBadInput(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	_, err := f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 15), -1, metrics.SourceAPI)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = f.svcs.Readings.Record(ctx, 999, day(2023, 4, 15), 10, metrics.SourceAPI)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBulkRaisesNoAlerts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := setup(t, Deps{Metrics: m})
	ctx := context.Background()

	res, err := f.svcs.Readings.Bulk(ctx, f.site.ID, []domain.ReadingInput{
		{Date: day(2023, 4, 1), GenerationKWh: 10},
		{Date: day(2023, 4, 2), GenerationKWh: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upserted)
	assert.Empty(t, f.alerts(t))
	expected := `
# HELP solar_pr_readings_written_total Daily readings written, by source.
# TYPE solar_pr_readings_written_total counter
solar_pr_readings_written_total{source="bulk"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "solar_pr_readings_written_total"))

	_, err = f.svcs.Readings.Bulk(ctx, f.site.ID, []domain.ReadingInput{{Date: day(2023, 4, 1), GenerationKWh: -3}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFromMQTT(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	err := f.svcs.Readings.FromMQTT(ctx, "solar/readings", []byte(`{"site_number":7,"date":"2023-04-16","generation_kwh":40}`))
	require.NoError(t, err)
	assert.Len(t, f.alerts(t), 1)

	err = f.svcs.Readings.FromMQTT(ctx, "solar/readings", []byte(`{"site_number":8,"date":"2023-04-16","generation_kwh":40}`))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = f.svcs.Readings.FromMQTT(ctx, "solar/readings", []byte(`not json`))
	assert.Error(t, err)
}

func TestDashboardByFiscalYear(t *testing.T) {
	src := &fixedSource{v: 0.5}
	f := setup(t, Deps{})
	f.svcs.Dashboard.forecast = &forecast.Generator{Table: forecast.DefaultTable(), Rand: src, Now: func() time.Time { return day(2024, 1, 30) }}
	ctx := context.Background()

	for _, r := range []domain.DailyReading{
		{SiteID: f.site.ID, Date: day(2023, 4, 1), GenerationKWh: 100},
		{SiteID: f.site.ID, Date: day(2023, 4, 2), GenerationKWh: 30},
		{SiteID: f.site.ID, Date: day(2024, 3, 31), GenerationKWh: 80},
		{SiteID: f.site.ID, Date: day(2024, 4, 1), GenerationKWh: 999},
	} {
		_, err := f.store.UpsertReading(ctx, r.SiteID, r.Date, r.GenerationKWh)
		require.NoError(t, err)
	}

	d, err := f.svcs.Dashboard.ByFiscalYear(ctx, f.site.ID, 2023)
	require.NoError(t, err)
	require.Len(t, d.Data, 12)
	assert.Equal(t, "APR", d.Data[0].Label)
	assert.Equal(t, 130.0, d.Data[0].Actual)
	assert.Equal(t, 3100.0, d.Data[0].Target)
	assert.Equal(t, "MAR", d.Data[11].Label)
	assert.Equal(t, 80.0, d.Data[11].Actual)
	assert.Equal(t, 210.0, d.Summary.Actual)

	require.Len(t, d.Forecast, forecast.Horizon)
	assert.Equal(t, day(2024, 1, 31), d.Forecast[0].Date)
	assert.True(t, d.Forecast[0].IsForecast)

	_, err = f.svcs.Dashboard.ByFiscalYear(ctx, f.site.ID, 1999)
	assert.ErrorIs(t, err, ErrInvalid)
}

type fixedSource struct{ v float64 }

func (s *fixedSource) Float64() float64 { return s.v }

func TestDashboardRangeAcrossFiscalYears(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()
	require.NoError(t, f.svcs.Targets.Upsert(ctx, &domain.MonthlyTarget{SiteID: f.site.ID, FiscalYear: 2024, Apr: 6000}))

	_, err := f.store.UpsertReading(ctx, f.site.ID, day(2024, 3, 31), 100)
	require.NoError(t, err)
	_, err = f.store.UpsertReading(ctx, f.site.ID, day(2024, 4, 1), 200)
	require.NoError(t, err)

	d, err := f.svcs.Dashboard.ByRange(ctx, f.site.ID, day(2024, 3, 31), day(2024, 4, 1))
	require.NoError(t, err)
	require.Len(t, d.Data, 2)
	assert.Equal(t, 90.32, d.Data[0].Target)
	assert.Equal(t, 200.0, d.Data[1].Target)
	assert.Equal(t, "Excellent", d.Data[1].Status)

	_, err = f.svcs.Dashboard.ByRange(ctx, f.site.ID, day(2024, 4, 2), day(2024, 4, 1))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDashboardCacheInvalidatedByWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := setup(t, Deps{Cache: cache.New(rdb, time.Minute)})
	ctx := context.Background()

	d, err := f.svcs.Dashboard.ByFiscalYear(ctx, f.site.ID, 2023)
	require.NoError(t, err)
	assert.Zero(t, d.Summary.Actual)
	assert.True(t, mr.Exists(cache.SiteKey(f.site.ID, "dashboard", "fy", "2023")))

	// A store write that bypasses the service is not seen until invalidation.
	_, err = f.store.UpsertReading(ctx, f.site.ID, day(2023, 4, 1), 50)
	require.NoError(t, err)
	d, err = f.svcs.Dashboard.ByFiscalYear(ctx, f.site.ID, 2023)
	require.NoError(t, err)
	assert.Zero(t, d.Summary.Actual)

	_, err = f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 2), 60, metrics.SourceAPI)
	require.NoError(t, err)
	d, err = f.svcs.Dashboard.ByFiscalYear(ctx, f.site.ID, 2023)
	require.NoError(t, err)
	assert.Equal(t, 110.0, d.Summary.Actual)
}

func TestMonthlyRecordUpsertScoresAgainstStoredTarget(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	rec := &domain.MonthlyRecord{SiteID: f.site.ID, Year: 2024, Month: 2, TotalKWh: 2520}
	require.NoError(t, f.svcs.Records.Upsert(ctx, rec))
	require.NotNil(t, rec.PR)
	assert.Equal(t, 90.0, *rec.PR)

	explicit := 5040.0
	rec = &domain.MonthlyRecord{SiteID: f.site.ID, Year: 2024, Month: 2, TotalKWh: 2520, TargetKWh: &explicit}
	require.NoError(t, f.svcs.Records.Upsert(ctx, rec))
	assert.Equal(t, 50.0, *rec.PR)

	records, err := f.svcs.Records.List(ctx, f.site.ID, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	err = f.svcs.Records.Upsert(ctx, &domain.MonthlyRecord{SiteID: f.site.ID, Year: 2024, Month: 12})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFleetMatrixPrefersDirectRecords(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	_, err := f.store.UpsertReading(ctx, f.site.ID, day(2023, 4, 1), 480)
	require.NoError(t, err)
	_, err = f.store.UpsertReading(ctx, f.site.ID, day(2023, 5, 1), 70)
	require.NoError(t, err)
	require.NoError(t, f.store.UpsertMonthlyRecord(ctx, &domain.MonthlyRecord{SiteID: f.site.ID, Year: 2023, Month: 3, TotalKWh: 500}))

	views, err := f.svcs.Dashboard.FleetMatrix(ctx, 2023)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, MatrixCell{Month: "APR", Value: 500, Source: "direct"}, views[0].Months[0])
	assert.Equal(t, MatrixCell{Month: "MAY", Value: 70, Source: "derived"}, views[0].Months[1])
	assert.Equal(t, MatrixCell{Month: "JUN", Value: 0, Source: "empty"}, views[0].Months[2])
	assert.Equal(t, 570.0, views[0].Total)
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	x := excelize.NewFile()
	defer x.Close()
	for r, values := range rows {
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, x.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	_, err := x.WriteTo(&buf)
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestImportDailyCountsSkippedRows(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	res, err := f.svcs.Imports.Daily(ctx, f.site.ID, workbook(t, [][]interface{}{
		{"Date", "Generation (kWh)"},
		{"2023-04-16", "40"},
		{"Total", "40"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, f.alerts(t))
}

func TestImportFleetSkipsUnknownSites(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	res, err := f.svcs.Imports.Fleet(ctx, workbook(t, [][]interface{}{
		{"Site Number", "Date", "Generation"},
		{"7", "2023-04-01", "10"},
		{"8", "2023-04-01", "10"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Skipped)

	_, err = f.svcs.Imports.Fleet(ctx, workbook(t, [][]interface{}{{"Date", "Generation"}, {"2023-04-01", "1"}}))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestImportMatrixCreatesMonthlyRecords(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	res, err := f.svcs.Imports.Matrix(ctx, workbook(t, [][]interface{}{
		{"Site Number", "Apr", "Jan"},
		{"7", "1500", "900"},
	}), 2023)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upserted)

	rec, err := f.store.FindMonthlyRecord(ctx, f.site.ID, 2024, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 900.0, rec.TotalKWh)
}

type fakeArchive struct {
	key, contentType string
	size             int
}

func (a *fakeArchive) UploadReport(_ context.Context, key string, data []byte, contentType string) (string, error) {
	a.key, a.contentType, a.size = key, contentType, len(data)
	return "https://example.invalid/" + key, nil
}

func TestExportReportAndArchive(t *testing.T) {
	archive := &fakeArchive{}
	f := setup(t, Deps{Archive: archive})
	f.svcs.Exports.now = func() time.Time { return day(2024, 4, 2) }
	ctx := context.Background()

	file, err := f.svcs.Exports.Report(ctx, f.site.ID, 2023)
	require.NoError(t, err)
	assert.Equal(t, "site-7-fy2023.pdf", file.Name)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	url, err := f.svcs.Exports.Archive(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, "exports/2024/04/02/site-7-fy2023.pdf", archive.key)
	assert.Equal(t, "application/pdf", archive.contentType)
	assert.Contains(t, url, archive.key)
}

func TestArchiveDisabled(t *testing.T) {
	f := setup(t, Deps{})
	_, err := f.svcs.Exports.Archive(context.Background(), &File{Name: "x.xlsx"})
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestResolveAlert(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()
	_, err := f.svcs.Readings.Record(ctx, f.site.ID, day(2023, 4, 16), 40, metrics.SourceAPI)
	require.NoError(t, err)

	id := f.alerts(t)[0].ID
	a, err := f.svcs.Alerts.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.Resolved)

	open, err := f.svcs.Alerts.List(ctx, repository.AlertQuery{})
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = f.svcs.Alerts.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSiteValidationAndEnsure(t *testing.T) {
	f := setup(t, Deps{})
	ctx := context.Background()

	err := f.svcs.Sites.Create(ctx, &domain.Site{Name: " ", SiteNumber: 1, CapacityKWp: 1})
	assert.ErrorIs(t, err, ErrInvalid)
	err = f.svcs.Sites.Create(ctx, &domain.Site{Name: "B", SiteNumber: 2, CapacityKWp: 0})
	assert.ErrorIs(t, err, ErrInvalid)

	got, created, err := f.svcs.Sites.Ensure(ctx, domain.Site{Name: "Rooftop A", SiteNumber: 7, CapacityKWp: 100})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.site.ID, got.ID)

	got, created, err = f.svcs.Sites.Ensure(ctx, domain.Site{Name: "New", SiteNumber: 9, CapacityKWp: 10})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, got.ID)
}

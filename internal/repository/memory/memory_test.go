package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSites(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := domain.Site{Name: "B", SiteNumber: 2, CapacityKWp: 10}
	a := domain.Site{Name: "A", SiteNumber: 1, CapacityKWp: 10}
	require.NoError(t, s.CreateSite(ctx, &b))
	require.NoError(t, s.CreateSite(ctx, &a))
	assert.NotEqual(t, a.ID, b.ID)

	sites, err := s.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, 1, sites[0].SiteNumber)

	got, err := s.GetSiteByNumber(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.GetSite(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSite(ctx, 99), repository.ErrNotFound)
	assert.ErrorIs(t, s.UpdateSite(ctx, &domain.Site{ID: 99}), repository.ErrNotFound)
}

func TestTargetsKeepIDOnUpsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := domain.MonthlyTarget{SiteID: 1, FiscalYear: 2023, Apr: 10}
	require.NoError(t, s.UpsertTarget(ctx, &first))
	second := domain.MonthlyTarget{SiteID: 1, FiscalYear: 2023, Apr: 20}
	require.NoError(t, s.UpsertTarget(ctx, &second))
	assert.Equal(t, first.ID, second.ID)
	require.NoError(t, s.UpsertTarget(ctx, &domain.MonthlyTarget{SiteID: 1, FiscalYear: 2024}))

	got, err := s.FindTarget(ctx, 1, 2023)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Apr)

	missing, err := s.FindTarget(ctx, 1, 2019)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := s.ListTargets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2024, all[0].FiscalYear)
}

func TestReadingsUpsertByDay(t *testing.T) {
	s := New()
	ctx := context.Background()

	r1, err := s.UpsertReading(ctx, 1, day(2023, 4, 1), 10)
	require.NoError(t, err)
	r2, err := s.UpsertReading(ctx, 1, day(2023, 4, 1), 12)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)

	res, err := s.BulkUpsertReadings(ctx, []domain.DailyReading{
		{SiteID: 1, Date: day(2023, 4, 1), GenerationKWh: 12},
		{SiteID: 1, Date: day(2023, 4, 2), GenerationKWh: 5},
		{SiteID: 2, Date: day(2023, 4, 3), GenerationKWh: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BulkResult{Total: 3, Matched: 1, Upserted: 2}, res)

	from := day(2023, 4, 2)
	got, err := s.FindReadings(ctx, repository.ReadingQuery{SiteID: 1, From: &from})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5.0, got[0].GenerationKWh)

	newest, err := s.FindReadings(ctx, repository.ReadingQuery{Newest: true})
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, day(2023, 4, 3), newest[0].Date)

	_, err = s.DeleteReading(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateReadingKeepsOnePerDay(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.UpsertReading(ctx, 1, day(2023, 4, 15), 90)
	require.NoError(t, err)
	second, err := s.UpsertReading(ctx, 1, day(2023, 4, 16), 40)
	require.NoError(t, err)
	other, err := s.UpsertReading(ctx, 2, day(2023, 4, 17), 10)
	require.NoError(t, err)

	_, err = s.UpdateReading(ctx, second.ID, day(2023, 4, 15), 50)
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := s.FindReadings(ctx, repository.ReadingQuery{SiteID: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, 90.0, got[0].GenerationKWh)
	assert.Equal(t, day(2023, 4, 16), got[1].Date)

	// same day and another site's day are both free
	updated, err := s.UpdateReading(ctx, second.ID, day(2023, 4, 16), 45)
	require.NoError(t, err)
	assert.Equal(t, 45.0, updated.GenerationKWh)
	moved, err := s.UpdateReading(ctx, second.ID, day(2023, 4, 17), 45)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 4, 17), moved.Date)
	assert.NotEqual(t, other.ID, moved.ID)

	_, err = s.UpdateReading(ctx, 999, day(2023, 4, 1), 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteSiteCascades(t *testing.T) {
	s := New()
	ctx := context.Background()

	gone := domain.Site{Name: "Gone", SiteNumber: 1, CapacityKWp: 10}
	kept := domain.Site{Name: "Kept", SiteNumber: 2, CapacityKWp: 10}
	require.NoError(t, s.CreateSite(ctx, &gone))
	require.NoError(t, s.CreateSite(ctx, &kept))
	for _, id := range []int64{gone.ID, kept.ID} {
		require.NoError(t, s.UpsertTarget(ctx, &domain.MonthlyTarget{SiteID: id, FiscalYear: 2023, Apr: 3100}))
		_, err := s.UpsertReading(ctx, id, day(2023, 4, 1), 10)
		require.NoError(t, err)
		require.NoError(t, s.UpsertMonthlyRecord(ctx, &domain.MonthlyRecord{SiteID: id, Year: 2023, Month: 3, TotalKWh: 100}))
		require.NoError(t, s.CreateAlert(ctx, &domain.Alert{ID: fmt.Sprintf("alert-%d", id), SiteID: id, Severity: "WARNING"}))
	}

	require.NoError(t, s.DeleteSite(ctx, gone.ID))

	readings, err := s.FindReadings(ctx, repository.ReadingQuery{})
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, kept.ID, readings[0].SiteID)

	targets, err := s.ListTargets(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, targets)

	records, err := s.RecordsForFiscalYear(ctx, 2023)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, kept.ID, records[0].SiteID)

	alerts, err := s.ListAlerts(ctx, repository.AlertQuery{IncludeResolved: true})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, kept.ID, alerts[0].SiteID)
}

func TestRecordsForFiscalYear(t *testing.T) {
	s := New()
	ctx := context.Background()

	res, err := s.BulkUpsertMonthlyRecords(ctx, []domain.MonthlyRecord{
		{SiteID: 1, Year: 2023, Month: 2, TotalKWh: 1},
		{SiteID: 1, Year: 2023, Month: 3, TotalKWh: 2},
		{SiteID: 1, Year: 2024, Month: 2, TotalKWh: 3},
		{SiteID: 1, Year: 2024, Month: 3, TotalKWh: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Upserted)

	got, err := s.RecordsForFiscalYear(ctx, 2023)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	rec := domain.MonthlyRecord{SiteID: 1, Year: 2023, Month: 3, TotalKWh: 9}
	require.NoError(t, s.UpsertMonthlyRecord(ctx, &rec))
	found, err := s.FindMonthlyRecord(ctx, 1, 2023, 3)
	require.NoError(t, err)
	assert.Equal(t, 9.0, found.TotalKWh)
	assert.Equal(t, rec.ID, found.ID)
}

func TestAlertsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateAlert(ctx, &domain.Alert{ID: "a", SiteID: 1}))
	require.NoError(t, s.CreateAlert(ctx, &domain.Alert{ID: "b", SiteID: 2}))
	require.NoError(t, s.CreateAlert(ctx, &domain.Alert{ID: "c", SiteID: 1}))

	_, err := s.ResolveAlert(ctx, "c")
	require.NoError(t, err)

	open, err := s.ListAlerts(ctx, repository.AlertQuery{})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "b", open[0].ID)

	site1, err := s.ListAlerts(ctx, repository.AlertQuery{SiteID: 1, IncludeResolved: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, site1, 1)
	assert.Equal(t, "c", site1[0].ID)

	_, err = s.ResolveAlert(ctx, "zzz")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

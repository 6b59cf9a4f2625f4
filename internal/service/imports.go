package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/spreadsheet"
)

// ImportService loads uploaded workbooks. Imports are batched upserts and
// never raise alerts. Unparseable rows are counted in Skipped.
type ImportService struct {
	store   repository.Store
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func (s *ImportService) sheet(r io.Reader) (*spreadsheet.Sheet, error) {
	sh, err := spreadsheet.ReadFirstSheet(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return sh, nil
}

// Daily imports a single-site workbook of date and generation columns.
func (s *ImportService) Daily(ctx context.Context, siteID int64, r io.Reader) (domain.BulkResult, error) {
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return domain.BulkResult{}, err
	}
	sh, err := s.sheet(r)
	if err != nil {
		return domain.BulkResult{}, err
	}
	rows, skipped := spreadsheet.ParseDaily(sh)
	if len(rows) == 0 {
		return domain.BulkResult{Skipped: skipped}, invalid("no valid rows found")
	}
	batch := make([]domain.DailyReading, len(rows))
	for i, row := range rows {
		batch[i] = domain.DailyReading{SiteID: siteID, Date: row.Date, GenerationKWh: row.KWh}
	}
	res, err := s.store.BulkUpsertReadings(ctx, batch)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped
	s.metrics.ReadingsWritten(metrics.SourceImport, res.Upserted+res.Modified)
	invalidate(ctx, s.cache, s.log, siteID)
	s.log.Info().Int64("site_id", siteID).Int("total", res.Total).Int("skipped", skipped).Msg("daily workbook imported")
	return res, nil
}

func (s *ImportService) siteNumbers(ctx context.Context) (map[int]int64, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[int]int64, len(sites))
	for _, site := range sites {
		ids[site.SiteNumber] = site.ID
	}
	return ids, nil
}

// Fleet imports a multi-site workbook keyed by site number. Rows of unknown
// sites are skipped.
func (s *ImportService) Fleet(ctx context.Context, r io.Reader) (domain.BulkResult, error) {
	sh, err := s.sheet(r)
	if err != nil {
		return domain.BulkResult{}, err
	}
	rows, skipped, err := spreadsheet.ParseFleetDaily(sh)
	if err != nil {
		return domain.BulkResult{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	ids, err := s.siteNumbers(ctx)
	if err != nil {
		return domain.BulkResult{}, err
	}

	touched := map[int64]bool{}
	batch := make([]domain.DailyReading, 0, len(rows))
	for _, row := range rows {
		id, ok := ids[row.SiteNumber]
		if !ok {
			skipped++
			continue
		}
		touched[id] = true
		batch = append(batch, domain.DailyReading{SiteID: id, Date: row.Date, GenerationKWh: row.KWh})
	}
	if len(batch) == 0 {
		return domain.BulkResult{Skipped: skipped}, invalid("no valid rows found")
	}
	res, err := s.store.BulkUpsertReadings(ctx, batch)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped
	s.metrics.ReadingsWritten(metrics.SourceImport, res.Upserted+res.Modified)
	for id := range touched {
		invalidate(ctx, s.cache, s.log, id)
	}
	s.log.Info().Int("sites", len(touched)).Int("total", res.Total).Int("skipped", skipped).Msg("fleet workbook imported")
	return res, nil
}

// Matrix imports a portfolio matrix of fiscal year fy as monthly records.
func (s *ImportService) Matrix(ctx context.Context, r io.Reader, fy int) (domain.BulkResult, error) {
	if fy < minFiscalYear {
		return domain.BulkResult{}, invalid("year must be %d or later", minFiscalYear)
	}
	sh, err := s.sheet(r)
	if err != nil {
		return domain.BulkResult{}, err
	}
	entries, skipped, err := spreadsheet.ParseMatrix(sh, fy)
	if err != nil {
		return domain.BulkResult{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	ids, err := s.siteNumbers(ctx)
	if err != nil {
		return domain.BulkResult{}, err
	}

	touched := map[int64]bool{}
	batch := make([]domain.MonthlyRecord, 0, len(entries))
	for _, e := range entries {
		id, ok := ids[e.SiteNumber]
		if !ok {
			skipped++
			continue
		}
		touched[id] = true
		batch = append(batch, domain.MonthlyRecord{SiteID: id, Year: e.Year, Month: e.Month, TotalKWh: e.KWh})
	}
	if len(batch) == 0 {
		return domain.BulkResult{Skipped: skipped}, invalid("no valid rows found")
	}
	res, err := s.store.BulkUpsertMonthlyRecords(ctx, batch)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped
	for id := range touched {
		invalidate(ctx, s.cache, s.log, id)
	}
	s.log.Info().Int("fiscal_year", fy).Int("sites", len(touched)).Int("total", res.Total).Msg("matrix workbook imported")
	return res, nil
}

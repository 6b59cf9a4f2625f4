package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

type RecordService struct {
	store repository.Store
	cache *cache.Cache
	log   zerolog.Logger
}

func validateRecord(r *domain.MonthlyRecord) error {
	if r.Month < 0 || r.Month > 11 {
		return invalid("month must be between 0 and 11")
	}
	if r.Year < minFiscalYear {
		return invalid("year must be %d or later", minFiscalYear)
	}
	if !validAmount(r.TotalKWh) {
		return invalid("total generation must be a non-negative number")
	}
	if r.TargetKWh != nil && !validAmount(*r.TargetKWh) {
		return invalid("target must be a non-negative number")
	}
	return nil
}

// List returns a site's records, newest month first. year 0 lists every year.
func (s *RecordService) List(ctx context.Context, siteID int64, year int) ([]domain.MonthlyRecord, error) {
	out, err := s.store.ListMonthlyRecords(ctx, siteID, year)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.MonthlyRecord{}
	}
	return out, nil
}

// Upsert stores the record with its PR. The PR is taken against the explicit
// target when one is given, otherwise against the stored target document of
// the record's fiscal month; without either it is left empty.
func (s *RecordService) Upsert(ctx context.Context, r *domain.MonthlyRecord) error {
	if err := validateRecord(r); err != nil {
		return err
	}
	if _, err := s.store.GetSite(ctx, r.SiteID); err != nil {
		return err
	}
	if err := s.score(ctx, r); err != nil {
		return err
	}
	if err := s.store.UpsertMonthlyRecord(ctx, r); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, r.SiteID)
	return nil
}

func (s *RecordService) score(ctx context.Context, r *domain.MonthlyRecord) error {
	target := 0.0
	if r.TargetKWh != nil && *r.TargetKWh > 0 {
		target = *r.TargetKWh
	} else {
		fy := fiscal.YearOf(time.Date(r.Year, r.CalendarMonth(), 1, 0, 0, 0, 0, time.UTC))
		doc, err := s.store.FindTarget(ctx, r.SiteID, fy)
		if err != nil {
			return err
		}
		target = doc.Get(fiscal.KeyFor(r.CalendarMonth()))
	}
	if target > 0 {
		pr := performance.Round2(performance.Ratio(r.TotalKWh, target))
		r.PR = &pr
	} else {
		r.PR = nil
	}
	return nil
}

// Bulk syncs a batch of records in one transaction. One invalid row rejects
// the whole batch. PR is not recomputed.
func (s *RecordService) Bulk(ctx context.Context, rows []domain.MonthlyRecord) (domain.BulkResult, error) {
	if len(rows) == 0 {
		return domain.BulkResult{}, invalid("no records supplied")
	}
	sites := map[int64]bool{}
	for i := range rows {
		if err := validateRecord(&rows[i]); err != nil {
			return domain.BulkResult{}, err
		}
		sites[rows[i].SiteID] = true
	}
	res, err := s.store.BulkUpsertMonthlyRecords(ctx, rows)
	if err != nil {
		return res, err
	}
	for id := range sites {
		invalidate(ctx, s.cache, s.log, id)
	}
	return res, nil
}

func (s *RecordService) Delete(ctx context.Context, id int64) (*domain.MonthlyRecord, error) {
	r, err := s.store.DeleteMonthlyRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.log, r.SiteID)
	return r, nil
}

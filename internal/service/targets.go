package service

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

const minFiscalYear = 2000

type TargetService struct {
	store interface {
		repository.SiteStore
		repository.TargetStore
	}
	cache *cache.Cache
	log   zerolog.Logger
}

func (s *TargetService) List(ctx context.Context, siteID int64) ([]domain.MonthlyTarget, error) {
	out, err := s.store.ListTargets(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.MonthlyTarget{}
	}
	return out, nil
}

// Get returns the document of one fiscal year, ErrNotFound when none exists.
func (s *TargetService) Get(ctx context.Context, siteID int64, fy int) (*domain.MonthlyTarget, error) {
	t, err := s.store.FindTarget(ctx, siteID, fy)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

// Upsert replaces the twelve monthly values of (site, fiscal year).
func (s *TargetService) Upsert(ctx context.Context, t *domain.MonthlyTarget) error {
	if t.FiscalYear < minFiscalYear {
		return invalid("fiscal year must be %d or later", minFiscalYear)
	}
	for _, k := range fiscal.Order() {
		v := t.Get(k)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("target for %s must be a non-negative number", k.Label())
		}
	}
	if _, err := s.store.GetSite(ctx, t.SiteID); err != nil {
		return err
	}
	if err := s.store.UpsertTarget(ctx, t); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, t.SiteID)
	return nil
}

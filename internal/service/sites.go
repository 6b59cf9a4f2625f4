package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

type SiteService struct {
	store repository.SiteStore
	cache *cache.Cache
	log   zerolog.Logger
}

func validateSite(s *domain.Site) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return invalid("site name is required")
	}
	if s.SiteNumber <= 0 {
		return invalid("site number must be positive")
	}
	if !(s.CapacityKWp > 0) {
		return invalid("capacity must be positive")
	}
	return nil
}

func (s *SiteService) List(ctx context.Context) ([]domain.Site, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	if sites == nil {
		sites = []domain.Site{}
	}
	return sites, nil
}

func (s *SiteService) Get(ctx context.Context, id int64) (*domain.Site, error) {
	return s.store.GetSite(ctx, id)
}

func (s *SiteService) Create(ctx context.Context, site *domain.Site) error {
	if err := validateSite(site); err != nil {
		return err
	}
	return s.store.CreateSite(ctx, site)
}

// Update replaces the site's attributes and drops its cached views.
func (s *SiteService) Update(ctx context.Context, site *domain.Site) error {
	if err := validateSite(site); err != nil {
		return err
	}
	if err := s.store.UpdateSite(ctx, site); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, site.ID)
	return nil
}

func (s *SiteService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteSite(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, id)
	return nil
}

// Ensure returns the site with the given number, creating it when missing.
func (s *SiteService) Ensure(ctx context.Context, site domain.Site) (*domain.Site, bool, error) {
	existing, err := s.store.GetSiteByNumber(ctx, site.SiteNumber)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	if err := s.Create(ctx, &site); err != nil {
		return nil, false, err
	}
	return &site, true, nil
}

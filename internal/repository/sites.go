package repository

import (
	"context"
	"fmt"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

const siteColumns = `id, name, site_number, capacity_kwp, location, created_at`

func (r *Repos) ListSites(ctx context.Context) ([]domain.Site, error) {
	var out []domain.Site
	err := r.db.SelectContext(ctx, &out, `SELECT `+siteColumns+` FROM sites ORDER BY site_number`)
	return out, err
}

func (r *Repos) GetSite(ctx context.Context, id int64) (*domain.Site, error) {
	var s domain.Site
	if err := r.db.GetContext(ctx, &s, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id); err != nil {
		return nil, rowErr(err)
	}
	return &s, nil
}

func (r *Repos) GetSiteByNumber(ctx context.Context, number int) (*domain.Site, error) {
	var s domain.Site
	if err := r.db.GetContext(ctx, &s, `SELECT `+siteColumns+` FROM sites WHERE site_number = $1`, number); err != nil {
		return nil, rowErr(err)
	}
	return &s, nil
}

func (r *Repos) CreateSite(ctx context.Context, s *domain.Site) error {
	row := r.db.QueryRowxContext(ctx,
		`INSERT INTO sites (name, site_number, capacity_kwp, location) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		s.Name, s.SiteNumber, s.CapacityKWp, s.Location)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

func (r *Repos) UpdateSite(ctx context.Context, s *domain.Site) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sites SET name = $2, site_number = $3, capacity_kwp = $4, location = $5 WHERE id = $1`,
		s.ID, s.Name, s.SiteNumber, s.CapacityKWp, s.Location)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSite removes the site; readings, targets, records and alerts cascade.
func (r *Repos) DeleteSite(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

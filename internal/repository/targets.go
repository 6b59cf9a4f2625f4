package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

const targetColumns = `id, site_id, fiscal_year, apr, may, jun, jul, aug, sep, oct, nov, dec, jan, feb, mar, updated_at`

// FindTarget returns nil, nil when the site has no target for the fiscal year.
func (r *Repos) FindTarget(ctx context.Context, siteID int64, fiscalYear int) (*domain.MonthlyTarget, error) {
	var t domain.MonthlyTarget
	err := r.db.GetContext(ctx, &t,
		`SELECT `+targetColumns+` FROM monthly_targets WHERE site_id = $1 AND fiscal_year = $2`, siteID, fiscalYear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find target: %w", err)
	}
	return &t, nil
}

func (r *Repos) FindTargets(ctx context.Context, siteID int64, fromFY, toFY int) ([]domain.MonthlyTarget, error) {
	var out []domain.MonthlyTarget
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+targetColumns+` FROM monthly_targets WHERE site_id = $1 AND fiscal_year BETWEEN $2 AND $3 ORDER BY fiscal_year`,
		siteID, fromFY, toFY)
	return out, err
}

func (r *Repos) ListTargets(ctx context.Context, siteID int64) ([]domain.MonthlyTarget, error) {
	var out []domain.MonthlyTarget
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+targetColumns+` FROM monthly_targets WHERE site_id = $1 ORDER BY fiscal_year DESC`, siteID)
	return out, err
}

// UpsertTarget replaces all twelve months of the (site, fiscal year) document.
func (r *Repos) UpsertTarget(ctx context.Context, t *domain.MonthlyTarget) error {
	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO monthly_targets (site_id, fiscal_year, apr, may, jun, jul, aug, sep, oct, nov, dec, jan, feb, mar)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (site_id, fiscal_year) DO UPDATE SET
			apr = EXCLUDED.apr, may = EXCLUDED.may, jun = EXCLUDED.jun, jul = EXCLUDED.jul,
			aug = EXCLUDED.aug, sep = EXCLUDED.sep, oct = EXCLUDED.oct, nov = EXCLUDED.nov,
			dec = EXCLUDED.dec, jan = EXCLUDED.jan, feb = EXCLUDED.feb, mar = EXCLUDED.mar,
			updated_at = now()
		RETURNING id, updated_at`,
		t.SiteID, t.FiscalYear, t.Apr, t.May, t.Jun, t.Jul, t.Aug, t.Sep, t.Oct, t.Nov, t.Dec, t.Jan, t.Feb, t.Mar)
	if err := row.Scan(&t.ID, &t.UpdatedAt); err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

const alertColumns = `id, site_id, severity, category, message, resolved, created_at`

func (r *Repos) CreateAlert(ctx context.Context, a *domain.Alert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, site_id, severity, category, message, resolved, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.SiteID, a.Severity, a.Category, a.Message, a.Resolved, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts newest first. Resolved alerts are skipped unless asked for.
func (r *Repos) ListAlerts(ctx context.Context, q AlertQuery) ([]domain.Alert, error) {
	var (
		where []string
		args  []interface{}
	)
	if !q.IncludeResolved {
		where = append(where, "resolved = FALSE")
	}
	if q.SiteID != 0 {
		args = append(args, q.SiteID)
		where = append(where, fmt.Sprintf("site_id = $%d", len(args)))
	}
	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	var out []domain.Alert
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

// ResolveAlert marks the alert resolved. Resolving twice is not an error.
func (r *Repos) ResolveAlert(ctx context.Context, id string) (*domain.Alert, error) {
	var a domain.Alert
	err := r.db.GetContext(ctx, &a, `UPDATE alerts SET resolved = TRUE WHERE id = $1 RETURNING `+alertColumns, id)
	if err != nil {
		return nil, rowErr(err)
	}
	return &a, nil
}

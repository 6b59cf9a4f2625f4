package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

const readingColumns = `id, site_id, reading_date, generation_kwh, updated_at`

func (r *Repos) FindReadings(ctx context.Context, q ReadingQuery) ([]domain.DailyReading, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.SiteID != 0 {
		args = append(args, q.SiteID)
		where = append(where, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if q.From != nil {
		args = append(args, fiscal.Normalize(*q.From))
		where = append(where, fmt.Sprintf("reading_date >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, fiscal.Normalize(*q.To))
		where = append(where, fmt.Sprintf("reading_date <= $%d", len(args)))
	}
	query := `SELECT ` + readingColumns + ` FROM daily_readings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if q.Newest {
		query += ` ORDER BY reading_date DESC, site_id`
	} else {
		query += ` ORDER BY reading_date, site_id`
	}

	var out []domain.DailyReading
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("find readings: %w", err)
	}
	return out, nil
}

const upsertReadingSQL = `
	INSERT INTO daily_readings (site_id, reading_date, generation_kwh)
	VALUES ($1, $2, $3)
	ON CONFLICT (site_id, reading_date) DO UPDATE SET
		generation_kwh = EXCLUDED.generation_kwh,
		updated_at = now()`

// UpsertReading writes the day's value, replacing any previous one.
func (r *Repos) UpsertReading(ctx context.Context, siteID int64, date time.Time, kwh float64) (*domain.DailyReading, error) {
	var out domain.DailyReading
	err := r.db.GetContext(ctx, &out, upsertReadingSQL+` RETURNING `+readingColumns,
		siteID, fiscal.Normalize(date), kwh)
	if err != nil {
		return nil, fmt.Errorf("upsert reading: %w", err)
	}
	return &out, nil
}

// BulkUpsertReadings applies every row in one transaction. Rows whose value
// is unchanged count as matched but not modified. Later duplicates in the
// batch overwrite earlier ones.
func (r *Repos) BulkUpsertReadings(ctx context.Context, rows []domain.DailyReading) (domain.BulkResult, error) {
	res := domain.BulkResult{Total: len(rows)}
	if len(rows) == 0 {
		return res, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin bulk upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt := upsertReadingSQL + `
		WHERE daily_readings.generation_kwh IS DISTINCT FROM EXCLUDED.generation_kwh
		RETURNING (xmax = 0) AS inserted`
	for _, row := range rows {
		var inserted bool
		err := tx.QueryRowxContext(ctx, stmt, row.SiteID, fiscal.Normalize(row.Date), row.GenerationKWh).Scan(&inserted)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return domain.BulkResult{Total: len(rows)}, fmt.Errorf("bulk upsert reading %s: %w", row.Date.Format("2006-01-02"), err)
		case inserted:
			res.Upserted++
		default:
			res.Modified++
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.BulkResult{Total: len(rows)}, fmt.Errorf("commit bulk upsert: %w", err)
	}
	res.Matched = res.Total - res.Upserted
	return res, nil
}

func (r *Repos) UpdateReading(ctx context.Context, id int64, date time.Time, kwh float64) (*domain.DailyReading, error) {
	var out domain.DailyReading
	err := r.db.GetContext(ctx, &out, `
		UPDATE daily_readings SET reading_date = $2, generation_kwh = $3, updated_at = now()
		WHERE id = $1 RETURNING `+readingColumns, id, fiscal.Normalize(date), kwh)
	if err != nil {
		return nil, rowErr(err)
	}
	return &out, nil
}

func (r *Repos) DeleteReading(ctx context.Context, id int64) (*domain.DailyReading, error) {
	var out domain.DailyReading
	err := r.db.GetContext(ctx, &out, `DELETE FROM daily_readings WHERE id = $1 RETURNING `+readingColumns, id)
	if err != nil {
		return nil, rowErr(err)
	}
	return &out, nil
}

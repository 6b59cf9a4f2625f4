package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

const recordColumns = `id, site_id, year, month, total_kwh, target_kwh, pr, peak_kwh, avg_daily_kwh, days_operational, notes, updated_at`

const upsertRecordSQL = `
	INSERT INTO monthly_records (site_id, year, month, total_kwh, target_kwh, pr, peak_kwh, avg_daily_kwh, days_operational, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (site_id, year, month) DO UPDATE SET
		total_kwh = EXCLUDED.total_kwh,
		target_kwh = EXCLUDED.target_kwh,
		pr = EXCLUDED.pr,
		peak_kwh = EXCLUDED.peak_kwh,
		avg_daily_kwh = EXCLUDED.avg_daily_kwh,
		days_operational = EXCLUDED.days_operational,
		notes = EXCLUDED.notes,
		updated_at = now()`

func recordArgs(rec *domain.MonthlyRecord) []interface{} {
	return []interface{}{rec.SiteID, rec.Year, rec.Month, rec.TotalKWh, rec.TargetKWh, rec.PR,
		rec.PeakKWh, rec.AvgDailyKWh, rec.DaysOperational, rec.Notes}
}

// FindMonthlyRecord returns nil, nil when no record was entered for the month.
func (r *Repos) FindMonthlyRecord(ctx context.Context, siteID int64, year, month int) (*domain.MonthlyRecord, error) {
	var rec domain.MonthlyRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT `+recordColumns+` FROM monthly_records WHERE site_id = $1 AND year = $2 AND month = $3`,
		siteID, year, month)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find monthly record: %w", err)
	}
	return &rec, nil
}

// ListMonthlyRecords lists a site's records, optionally limited to one calendar year (year 0 lists all).
func (r *Repos) ListMonthlyRecords(ctx context.Context, siteID int64, year int) ([]domain.MonthlyRecord, error) {
	var out []domain.MonthlyRecord
	var err error
	if year == 0 {
		err = r.db.SelectContext(ctx, &out,
			`SELECT `+recordColumns+` FROM monthly_records WHERE site_id = $1 ORDER BY year DESC, month DESC`, siteID)
	} else {
		err = r.db.SelectContext(ctx, &out,
			`SELECT `+recordColumns+` FROM monthly_records WHERE site_id = $1 AND year = $2 ORDER BY month DESC`, siteID, year)
	}
	return out, err
}

// RecordsForFiscalYear returns every site's records from April of fiscalYear to March of the next year.
func (r *Repos) RecordsForFiscalYear(ctx context.Context, fiscalYear int) ([]domain.MonthlyRecord, error) {
	var out []domain.MonthlyRecord
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+recordColumns+` FROM monthly_records
		WHERE (year = $1 AND month >= 3) OR (year = $2 AND month <= 2)
		ORDER BY site_id, year, month`, fiscalYear, fiscalYear+1)
	return out, err
}

func (r *Repos) UpsertMonthlyRecord(ctx context.Context, rec *domain.MonthlyRecord) error {
	row := r.db.QueryRowxContext(ctx, upsertRecordSQL+` RETURNING id, updated_at`, recordArgs(rec)...)
	if err := row.Scan(&rec.ID, &rec.UpdatedAt); err != nil {
		return fmt.Errorf("upsert monthly record: %w", err)
	}
	return nil
}

// BulkUpsertMonthlyRecords writes all records in one transaction.
func (r *Repos) BulkUpsertMonthlyRecords(ctx context.Context, rows []domain.MonthlyRecord) (domain.BulkResult, error) {
	res := domain.BulkResult{Total: len(rows)}
	if len(rows) == 0 {
		return res, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin record upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range rows {
		var inserted bool
		if err := tx.QueryRowxContext(ctx, upsertRecordSQL+` RETURNING (xmax = 0) AS inserted`, recordArgs(&rows[i])...).Scan(&inserted); err != nil {
			return domain.BulkResult{Total: len(rows)}, fmt.Errorf("upsert monthly record %d-%02d: %w", rows[i].Year, rows[i].Month+1, err)
		}
		if inserted {
			res.Upserted++
		} else {
			res.Modified++
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.BulkResult{Total: len(rows)}, fmt.Errorf("commit record upsert: %w", err)
	}
	res.Matched = res.Total - res.Upserted
	return res, nil
}

func (r *Repos) DeleteMonthlyRecord(ctx context.Context, id int64) (*domain.MonthlyRecord, error) {
	var rec domain.MonthlyRecord
	if err := r.db.GetContext(ctx, &rec, `DELETE FROM monthly_records WHERE id = $1 RETURNING `+recordColumns, id); err != nil {
		return nil, rowErr(err)
	}
	return &rec, nil
}

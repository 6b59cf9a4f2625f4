package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

// ErrNotFound is returned when an addressed row does not exist. Lookups that
// merely miss (targets, monthly records) return nil without an error.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would break a uniqueness rule, such as
// moving a reading onto a day that already has one.
var ErrConflict = errors.New("conflict")

const uniqueViolation = "23505"

type SiteStore interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	GetSite(ctx context.Context, id int64) (*domain.Site, error)
	GetSiteByNumber(ctx context.Context, number int) (*domain.Site, error)
	CreateSite(ctx context.Context, s *domain.Site) error
	UpdateSite(ctx context.Context, s *domain.Site) error
	DeleteSite(ctx context.Context, id int64) error
}

type TargetStore interface {
	FindTarget(ctx context.Context, siteID int64, fiscalYear int) (*domain.MonthlyTarget, error)
	FindTargets(ctx context.Context, siteID int64, fromFY, toFY int) ([]domain.MonthlyTarget, error)
	ListTargets(ctx context.Context, siteID int64) ([]domain.MonthlyTarget, error)
	UpsertTarget(ctx context.Context, t *domain.MonthlyTarget) error
}

type ReadingStore interface {
	FindReadings(ctx context.Context, q ReadingQuery) ([]domain.DailyReading, error)
	UpsertReading(ctx context.Context, siteID int64, date time.Time, kwh float64) (*domain.DailyReading, error)
	BulkUpsertReadings(ctx context.Context, rows []domain.DailyReading) (domain.BulkResult, error)
	UpdateReading(ctx context.Context, id int64, date time.Time, kwh float64) (*domain.DailyReading, error)
	DeleteReading(ctx context.Context, id int64) (*domain.DailyReading, error)
}

type RecordStore interface {
	FindMonthlyRecord(ctx context.Context, siteID int64, year, month int) (*domain.MonthlyRecord, error)
	ListMonthlyRecords(ctx context.Context, siteID int64, year int) ([]domain.MonthlyRecord, error)
	RecordsForFiscalYear(ctx context.Context, fiscalYear int) ([]domain.MonthlyRecord, error)
	UpsertMonthlyRecord(ctx context.Context, r *domain.MonthlyRecord) error
	BulkUpsertMonthlyRecords(ctx context.Context, rows []domain.MonthlyRecord) (domain.BulkResult, error)
	DeleteMonthlyRecord(ctx context.Context, id int64) (*domain.MonthlyRecord, error)
}

// AlertStore is also implemented by the DynamoDB alert log.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *domain.Alert) error
	ListAlerts(ctx context.Context, q AlertQuery) ([]domain.Alert, error)
	ResolveAlert(ctx context.Context, id string) (*domain.Alert, error)
}

// Store is everything the services need from persistence.
type Store interface {
	SiteStore
	TargetStore
	ReadingStore
	RecordStore
	AlertStore
}

// ReadingQuery selects daily readings. SiteID 0 means every site; nil bounds are open.
type ReadingQuery struct {
	SiteID int64
	From   *time.Time
	To     *time.Time
	Newest bool
}

type AlertQuery struct {
	SiteID          int64
	IncludeResolved bool
	Limit           int
}

// Repos is the Postgres implementation of Store.
type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

var _ Store = (*Repos)(nil)

// rowErr maps driver errors of single-row statements onto the sentinels.
func rowErr(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	return err
}

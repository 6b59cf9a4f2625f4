package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/report"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/spreadsheet"
)

var ErrArchiveDisabled = errors.New("export archive is not configured")

// Archiver stores an export and returns a temporary download URL.
type Archiver interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store     repository.SiteStore
	dashboard *DashboardService
	archive   Archiver
	now       func() time.Time
}

func xlsx(name string, data []byte, err error) (*File, error) {
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return &File{Name: name, ContentType: spreadsheet.ContentType, Data: data}, nil
}

func (s *ExportService) siteNumber(ctx context.Context, siteID int64) (int, error) {
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return 0, err
	}
	return site.SiteNumber, nil
}

func (s *ExportService) Daily(ctx context.Context, siteID int64, from, to *time.Time) (*File, error) {
	num, err := s.siteNumber(ctx, siteID)
	if err != nil {
		return nil, err
	}
	rows, err := s.dashboard.SiteDaily(ctx, siteID, from, to)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.DailyWorkbook(rows)
	return xlsx(fmt.Sprintf("site-%d-daily.xlsx", num), data, err)
}

func (s *ExportService) Monthly(ctx context.Context, siteID int64) (*File, error) {
	num, err := s.siteNumber(ctx, siteID)
	if err != nil {
		return nil, err
	}
	rows, err := s.dashboard.SiteMonthly(ctx, siteID)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.MonthlyWorkbook(rows)
	return xlsx(fmt.Sprintf("site-%d-monthly.xlsx", num), data, err)
}

func (s *ExportService) Yearly(ctx context.Context, siteID int64) (*File, error) {
	num, err := s.siteNumber(ctx, siteID)
	if err != nil {
		return nil, err
	}
	years, err := s.dashboard.SiteYearly(ctx, siteID)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.YearlyWorkbook(years)
	return xlsx(fmt.Sprintf("site-%d-yearly.xlsx", num), data, err)
}

func (s *ExportService) FleetYearly(ctx context.Context) (*File, error) {
	rows, err := s.dashboard.FleetYearly(ctx)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.FleetYearlyWorkbook(rows)
	return xlsx("fleet-yearly.xlsx", data, err)
}

func (s *ExportService) FleetOverview(ctx context.Context) (*File, error) {
	rows, err := s.dashboard.FleetOverview(ctx)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.FleetOverviewWorkbook(rows)
	return xlsx("fleet-overview.xlsx", data, err)
}

// Matrix exports the portfolio matrix in the layout the matrix import reads.
func (s *ExportService) Matrix(ctx context.Context, fy int) (*File, error) {
	rows, err := s.dashboard.Matrix(ctx, fy)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.MatrixWorkbook(rows)
	return xlsx(fmt.Sprintf("fleet-matrix-fy%d.xlsx", fy), data, err)
}

// Report renders the fiscal-year PDF of one site.
func (s *ExportService) Report(ctx context.Context, siteID int64, fy int) (*File, error) {
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	d, err := s.dashboard.ByFiscalYear(ctx, siteID, fy)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	data, err := report.Render(report.Data{
		Site:        site,
		FiscalYear:  fy,
		Rows:        d.Data,
		Summary:     d.Summary,
		GeneratedAt: now(),
	})
	if err != nil {
		return nil, err
	}
	return &File{Name: report.FileName(site.SiteNumber, fy), ContentType: report.ContentType, Data: data}, nil
}

// Archive uploads f under a dated prefix and returns its download URL.
func (s *ExportService) Archive(ctx context.Context, f *File) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	key := path.Join("exports", now().UTC().Format("2006/01/02"), f.Name)
	return s.archive.UploadReport(ctx, key, f.Data, f.ContentType)
}

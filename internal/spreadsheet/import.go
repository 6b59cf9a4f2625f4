// Package spreadsheet reads generation workbooks uploaded by operators and
// writes the exported views.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
)

// Header aliases, tried in order. The first alias present in the header row wins.
var (
	DateHeaders       = []string{"Date", "date", "DATE"}
	GenerationHeaders = []string{"Generation (kWh)", "generation", "Generation", "kWh", "Daily Generation"}
	SiteHeaders       = []string{"Site Number", "Site #", "site_number", "SiteNumber"}
)

var (
	ErrEmptySheet    = errors.New("workbook has no data rows")
	ErrNoSiteColumn  = errors.New(`column "Site Number" not found`)
	ErrNoDataColumns = errors.New(`missing "Date" or "Generation" columns`)
	ErrNoMonthColumn = errors.New("no month columns found")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01-02-06",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	time.RFC3339,
}

// Sheet is the first worksheet of a workbook: a header row plus data rows.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ReadFirstSheet loads the first worksheet of an .xlsx stream.
func ReadFirstSheet(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Sheet{Header: header, Rows: rows[1:]}, nil
}

// Column returns the index of the first alias found in the header, or -1.
func (s *Sheet) Column(aliases []string) int {
	for _, a := range aliases {
		for i, h := range s.Header {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseDate accepts the formats spreadsheets commonly produce, including Excel serial day numbers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fiscal.Normalize(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return fiscal.Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseAmount parses a non-negative kWh figure, tolerating thousands separators.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognised amount %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}

// DailyRow is one parsed reading of a single-site workbook.
type DailyRow struct {
	Date time.Time
	KWh  float64
}

// FleetDailyRow is one parsed reading of a multi-site workbook.
type FleetDailyRow struct {
	SiteNumber int
	Date       time.Time
	KWh        float64
}

// MatrixEntry is one site-month of a portfolio matrix. Month is 0 for January.
type MatrixEntry struct {
	SiteNumber int
	Year       int
	Month      int
	KWh        float64
}

// ParseDaily reads a single-site workbook. Without recognised headers the
// first two columns are taken as date and amount.
func ParseDaily(s *Sheet) (rows []DailyRow, skipped int) {
	dateCol, genCol := s.Column(DateHeaders), s.Column(GenerationHeaders)
	if dateCol < 0 {
		dateCol = 0
	}
	if genCol < 0 {
		genCol = 1
	}
	for _, raw := range s.Rows {
		d, err := ParseDate(cell(raw, dateCol))
		if err != nil {
			skipped++
			continue
		}
		v, err := ParseAmount(cell(raw, genCol))
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, DailyRow{Date: d, KWh: v})
	}
	return rows, skipped
}

// ParseFleetDaily reads a multi-site workbook keyed by site number.
func ParseFleetDaily(s *Sheet) (rows []FleetDailyRow, skipped int, err error) {
	siteCol := s.Column(SiteHeaders)
	if siteCol < 0 {
		return nil, 0, ErrNoSiteColumn
	}
	dateCol, genCol := s.Column(DateHeaders), s.Column(GenerationHeaders)
	if dateCol < 0 || genCol < 0 {
		return nil, 0, ErrNoDataColumns
	}
	for _, raw := range s.Rows {
		num, err := strconv.Atoi(cell(raw, siteCol))
		if err != nil {
			skipped++
			continue
		}
		d, err := ParseDate(cell(raw, dateCol))
		if err != nil {
			skipped++
			continue
		}
		v, err := ParseAmount(cell(raw, genCol))
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, FleetDailyRow{SiteNumber: num, Date: d, KWh: v})
	}
	return rows, skipped, nil
}

// IsMatrix reports whether any header names a month.
func (s *Sheet) IsMatrix() bool {
	for _, h := range s.Header {
		if _, ok := fiscal.ParseMonthName(h); ok {
			return true
		}
	}
	return false
}

// ParseMatrix reads a portfolio matrix for fiscal year fy. April to December
// columns belong to fy, January to March to fy+1. Blank cells count as zero.
func ParseMatrix(s *Sheet, fy int) (entries []MatrixEntry, skipped int, err error) {
	siteCol := s.Column(SiteHeaders)
	if siteCol < 0 {
		return nil, 0, ErrNoSiteColumn
	}
	type monthCol struct {
		idx int
		key fiscal.MonthKey
	}
	var months []monthCol
	for i, h := range s.Header {
		if i == siteCol {
			continue
		}
		if key, ok := fiscal.ParseMonthName(h); ok {
			months = append(months, monthCol{idx: i, key: key})
		}
	}
	if len(months) == 0 {
		return nil, 0, ErrNoMonthColumn
	}

	for _, raw := range s.Rows {
		num, err := strconv.Atoi(cell(raw, siteCol))
		if err != nil {
			skipped++
			continue
		}
		for _, m := range months {
			text := cell(raw, m.idx)
			v := 0.0
			if text != "" {
				if v, err = ParseAmount(text); err != nil {
					skipped++
					continue
				}
			}
			year, month := fiscal.CalendarMonth(fy, m.key)
			entries = append(entries, MatrixEntry{SiteNumber: num, Year: year, Month: int(month) - 1, KWh: v})
		}
	}
	return entries, skipped, nil
}

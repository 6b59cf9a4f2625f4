package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/aggregate"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
)

// ContentType is the MIME type of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeSheet renders one sheet with a bold frozen header row.
func writeSheet(sheet string, header []string, widths []float64, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFF4D6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, h := range header {
		name, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, name, h); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", name, err)
		}
		if err := f.SetCellStyle(sheet, name, name, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			colName, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(sheet, colName, colName, widths[col]); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for r, values := range rows {
		for c, v := range values {
			name, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", name, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DailyWorkbook exports scored daily rows.
func DailyWorkbook(rows []domain.AggregateRow) ([]byte, error) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Label, r.Actual, r.Target, r.PR, r.Status}
	}
	return writeSheet("Daily Generation",
		[]string{"Date", "Generation (kWh)", "Target (kWh)", "PR (%)", "Status"},
		[]float64{14, 18, 14, 10, 12}, out)
}

// MonthlyWorkbook exports scored monthly rows.
func MonthlyWorkbook(rows []domain.AggregateRow) ([]byte, error) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Label, r.Actual, r.Average, r.DaysRecorded, r.Target, r.PR, r.Status}
	}
	return writeSheet("Monthly Summary",
		[]string{"Month", "Total Generation (kWh)", "Daily Avg (kWh)", "Days Recorded", "Target (kWh)", "PR (%)", "Status"},
		[]float64{12, 22, 16, 14, 14, 10, 12}, out)
}

// YearlyWorkbook exports a single site's yearly buckets.
func YearlyWorkbook(years []aggregate.YearBucket) ([]byte, error) {
	out := make([][]interface{}, len(years))
	for i, y := range years {
		out[i] = []interface{}{y.Year, performance.Round2(y.Total), performance.Round2(y.AvgDaily), y.DaysRecorded}
	}
	return writeSheet("Yearly Summary",
		[]string{"Year", "Total Generation (kWh)", "Avg Daily (kWh)", "Days Recorded"},
		[]float64{10, 22, 16, 14}, out)
}

// FleetYearlyWorkbook exports every site's yearly buckets.
func FleetYearlyWorkbook(rows []aggregate.FleetYearRow) ([]byte, error) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Year, r.SiteNumber, r.SiteName, performance.Round2(r.Total), performance.Round2(r.AvgDaily)}
	}
	return writeSheet("Portfolio Yearly",
		[]string{"Year", "Site Number", "Site Name", "Annual Total (kWh)", "Daily Avg (kWh)"},
		[]float64{10, 12, 24, 20, 16}, out)
}

// FleetOverviewWorkbook exports lifetime production per site.
func FleetOverviewWorkbook(rows []aggregate.OverviewRow) ([]byte, error) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.SiteNumber, r.SiteName, r.CapacityKWp, performance.Round2(r.LifetimeKWh), performance.Round2(r.LifetimeMWh)}
	}
	return writeSheet("Fleet Master Record",
		[]string{"Site Number", "Site Name", "Capacity (kWp)", "Lifetime Generation (kWh)", "Lifetime Generation (MWh)"},
		[]float64{12, 24, 14, 24, 24}, out)
}

// MatrixWorkbook exports the portfolio matrix in fiscal month order with an annual total.
// The layout is the one ParseMatrix reads back.
func MatrixWorkbook(rows []aggregate.MatrixRow) ([]byte, error) {
	header := []string{"Site Number", "Site Name"}
	for _, k := range fiscal.Order() {
		header = append(header, k.Label()[:1]+string(k)[1:])
	}
	header = append(header, "Annual Total (kWh)")

	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		line := []interface{}{r.Site.SiteNumber, r.Site.Name}
		for _, v := range r.Values() {
			line = append(line, performance.Round2(v))
		}
		out[i] = append(line, performance.Round2(r.Total()))
	}
	return writeSheet("Portfolio Matrix", header, []float64{12, 24}, out)
}

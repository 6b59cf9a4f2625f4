// Package report renders the fiscal-year performance report of a site as PDF.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/aggregate"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

// ContentType is the MIME type of rendered reports.
const ContentType = "application/pdf"

var ErrNoSite = errors.New("report needs a site")

// Data is everything printed on one report.
type Data struct {
	Site        *domain.Site
	FiscalYear  int
	Rows        []domain.AggregateRow
	Summary     aggregate.Summary
	GeneratedAt time.Time
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 9}
	cellText   = props.Text{Size: 9}
	numHeader  = props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	numCell    = props.Text{Size: 9, Align: align.Right}
)

// Render lays the report out as a title block, a month table and a totals line.
func Render(d Data) ([]byte, error) {
	if d.Site == nil {
		return nil, ErrNoSite
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Performance Report", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, fmt.Sprintf("FY %d-%02d", d.FiscalYear, (d.FiscalYear+1)%100), props.Text{
			Size:  14,
			Align: align.Right,
		}),
	)

	m.AddRow(22,
		col.New(8).Add(
			text.New(fmt.Sprintf("Site %d: %s", d.Site.SiteNumber, d.Site.Name), props.Text{Style: fontstyle.Bold}),
			text.New("Location: "+d.Site.Location, props.Text{Top: 5}),
			text.New(fmt.Sprintf("Capacity: %.2f kWp", d.Site.CapacityKWp), props.Text{Top: 10}),
		),
		col.New(4).Add(
			text.New("Generated "+d.GeneratedAt.Format("02 Jan 2006 15:04"), props.Text{Size: 8, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(2, "Month", headerText),
		text.NewCol(3, "Actual (kWh)", numHeader),
		text.NewCol(3, "Target (kWh)", numHeader),
		text.NewCol(2, "PR (%)", numHeader),
		text.NewCol(2, "Status", numHeader),
	)
	for _, r := range d.Rows {
		m.AddRow(7,
			text.NewCol(2, r.Label, cellText),
			text.NewCol(3, fmt.Sprintf("%.2f", r.Actual), numCell),
			text.NewCol(3, fmt.Sprintf("%.2f", r.Target), numCell),
			text.NewCol(2, fmt.Sprintf("%.2f", r.PR), numCell),
			text.NewCol(2, r.Status, numCell),
		)
	}

	m.AddRow(12,
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(3, fmt.Sprintf("%.2f", d.Summary.Actual), props.Text{Style: fontstyle.Bold, Size: 9, Top: 3, Align: align.Right}),
		text.NewCol(3, fmt.Sprintf("%.2f", d.Summary.Target), props.Text{Style: fontstyle.Bold, Size: 9, Top: 3, Align: align.Right}),
		text.NewCol(2, fmt.Sprintf("%.2f", d.Summary.PR), props.Text{Style: fontstyle.Bold, Size: 9, Top: 3, Align: align.Right}),
		text.NewCol(2, d.Summary.Status, props.Text{Style: fontstyle.Bold, Size: 9, Top: 3, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return doc.GetBytes(), nil
}

// FileName is the download name of a report, e.g. "site-7-fy2023.pdf".
func FileName(siteNumber, fy int) string {
	return fmt.Sprintf("site-%d-fy%d.pdf", siteNumber, fy)
}

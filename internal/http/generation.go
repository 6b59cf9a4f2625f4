package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
)

type readingRequest struct {
	SiteID int64    `json:"site_id" validate:"required,gt=0"`
	Date   string   `json:"date" validate:"required"`
	Amount *float64 `json:"amount" validate:"required,gte=0"`
}

type readingRow struct {
	Date   string   `json:"date" validate:"required"`
	Amount *float64 `json:"amount" validate:"required,gte=0"`
}

type bulkReadingsRequest struct {
	SiteID   int64        `json:"site_id" validate:"required,gt=0"`
	Readings []readingRow `json:"readings" validate:"required,min=1,dive"`
}

type recordRequest struct {
	SiteID          int64    `json:"site_id" validate:"required,gt=0"`
	Year            int      `json:"year" validate:"required,gte=2000"`
	Month           *int     `json:"month" validate:"required,gte=0,lte=11"`
	TotalKWh        *float64 `json:"total_generation" validate:"required,gte=0"`
	TargetKWh       *float64 `json:"target" validate:"omitempty,gte=0"`
	PeakKWh         *float64 `json:"peak_generation" validate:"omitempty,gte=0"`
	AvgDailyKWh     *float64 `json:"avg_daily_generation" validate:"omitempty,gte=0"`
	DaysOperational *int     `json:"days_operational" validate:"omitempty,gte=0,lte=31"`
	Notes           string   `json:"notes"`
}

func (r recordRequest) toRecord() domain.MonthlyRecord {
	return domain.MonthlyRecord{
		SiteID:          r.SiteID,
		Year:            r.Year,
		Month:           *r.Month,
		TotalKWh:        *r.TotalKWh,
		TargetKWh:       r.TargetKWh,
		PeakKWh:         r.PeakKWh,
		AvgDailyKWh:     r.AvgDailyKWh,
		DaysOperational: r.DaysOperational,
		Notes:           strings.TrimSpace(r.Notes),
	}
}

type bulkRecordsRequest struct {
	Records []recordRequest `json:"records" validate:"required,min=1,dive"`
}

func parseDate(raw string) (time.Time, error) {
	t, err := fiscal.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest("date: %v", err)
	}
	return t, nil
}

func (h *handler) generationRoutes(api fiber.Router) {
	readings := api.Group("/readings")
	readings.Get("/", h.listReadings)
	readings.Post("/", h.recordReading)
	readings.Post("/bulk", h.bulkReadings)
	readings.Put("/:id", h.updateReading)
	readings.Delete("/:id", h.deleteReading)

	records := api.Group("/monthly-records")
	records.Get("/", h.listRecords)
	records.Post("/", h.upsertRecord)
	records.Post("/bulk", h.bulkRecords)
	records.Delete("/:id", h.deleteRecord)
}

func (h *handler) listReadings(c *fiber.Ctx) error {
	siteID, err := queryID(c, "site_id")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return err
	}
	out, err := h.svcs.Readings.List(c.UserContext(), siteID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *handler) recordReading(c *fiber.Ctx) error {
	var req readingRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	res, err := h.svcs.Readings.Record(c.UserContext(), req.SiteID, date, *req.Amount, metrics.SourceAPI)
	if err != nil {
		return err
	}
	return created(c, res)
}

func (h *handler) bulkReadings(c *fiber.Ctx) error {
	var req bulkReadingsRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	rows := make([]domain.ReadingInput, len(req.Readings))
	for i, r := range req.Readings {
		date, err := fiscal.ParseDate(r.Date)
		if err != nil {
			return badRequest("row %d: date: %v", i+1, err)
		}
		rows[i] = domain.ReadingInput{Date: date, GenerationKWh: *r.Amount}
	}
	res, err := h.svcs.Readings.Bulk(c.UserContext(), req.SiteID, rows)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handler) updateReading(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req readingRow
	if err := h.bind(c, &req); err != nil {
		return err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	res, err := h.svcs.Readings.Update(c.UserContext(), id, date, *req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handler) deleteReading(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.svcs.Readings.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) listRecords(c *fiber.Ctx) error {
	siteID, err := queryID(c, "site_id")
	if err != nil {
		return err
	}
	year, err := queryInt(c, "year", 0)
	if err != nil {
		return err
	}
	out, err := h.svcs.Records.List(c.UserContext(), siteID, year)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *handler) upsertRecord(c *fiber.Ctx) error {
	var req recordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	rec := req.toRecord()
	if err := h.svcs.Records.Upsert(c.UserContext(), &rec); err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *handler) bulkRecords(c *fiber.Ctx) error {
	var req bulkRecordsRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	rows := make([]domain.MonthlyRecord, len(req.Records))
	for i, r := range req.Records {
		rows[i] = r.toRecord()
	}
	res, err := h.svcs.Records.Bulk(c.UserContext(), rows)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handler) deleteRecord(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.svcs.Records.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

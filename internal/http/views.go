package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

func (h *handler) viewRoutes(api fiber.Router) {
	api.Get("/dashboard", h.dashboard)
	api.Get("/forecast", h.forecast)

	fleet := api.Group("/fleet")
	fleet.Get("/overview", h.fleetOverview)
	fleet.Get("/matrix", h.fleetMatrix)
	fleet.Get("/yearly", h.fleetYearly)
	fleet.Get("/monthly", h.fleetMonthly)

	api.Get("/alerts", h.listAlerts)
	api.Patch("/alerts/:id/resolve", h.resolveAlert)
}

// dashboard serves fiscal-year mode (?year=) unless both start and end are given.
func (h *handler) dashboard(c *fiber.Ctx) error {
	siteID, err := queryID(c, "site_id")
	if err != nil {
		return err
	}
	start, err := queryDate(c, "start")
	if err != nil {
		return err
	}
	end, err := queryDate(c, "end")
	if err != nil {
		return err
	}
	if (start == nil) != (end == nil) {
		return badRequest("start and end must be given together")
	}
	if start != nil {
		d, err := h.svcs.Dashboard.ByRange(c.UserContext(), siteID, *start, *end)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}

	fy, err := queryFiscalYear(c)
	if err != nil {
		return err
	}
	d, err := h.svcs.Dashboard.ByFiscalYear(c.UserContext(), siteID, fy)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *handler) forecast(c *fiber.Ctx) error {
	return c.JSON(h.svcs.Dashboard.Forecast())
}

func (h *handler) fleetOverview(c *fiber.Ctx) error {
	rows, err := h.svcs.Dashboard.FleetOverview(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handler) fleetMatrix(c *fiber.Ctx) error {
	fy, err := queryFiscalYear(c)
	if err != nil {
		return err
	}
	views, err := h.svcs.Dashboard.FleetMatrix(c.UserContext(), fy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"year": fy, "sites": views})
}

func (h *handler) fleetYearly(c *fiber.Ctx) error {
	rows, err := h.svcs.Dashboard.FleetYearly(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handler) fleetMonthly(c *fiber.Ctx) error {
	rows, err := h.svcs.Dashboard.FleetMonthly(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// listAlerts accepts optional site_id, all=true for resolved alerts too, and limit.
func (h *handler) listAlerts(c *fiber.Ctx) error {
	var q repository.AlertQuery
	if c.Query("site_id") != "" {
		id, err := queryID(c, "site_id")
		if err != nil {
			return err
		}
		q.SiteID = id
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	q.Limit = limit
	q.IncludeResolved = c.QueryBool("all", false)

	alerts, err := h.svcs.Alerts.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(alerts)
}

func (h *handler) resolveAlert(c *fiber.Ctx) error {
	a, err := h.svcs.Alerts.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(a)
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

type siteRequest struct {
	Name        string  `json:"name" validate:"required"`
	SiteNumber  int     `json:"site_number" validate:"required,gt=0"`
	CapacityKWp float64 `json:"capacity_kwp" validate:"gt=0"`
	Location    string  `json:"location"`
}

func (r siteRequest) toSite(id int64) domain.Site {
	return domain.Site{
		ID:          id,
		Name:        strings.TrimSpace(r.Name),
		SiteNumber:  r.SiteNumber,
		CapacityKWp: r.CapacityKWp,
		Location:    strings.TrimSpace(r.Location),
	}
}

// targetRequest carries the twelve monthly targets of one fiscal year.
// Omitted months are zero.
type targetRequest struct {
	SiteID int64   `json:"site_id" validate:"required,gt=0"`
	Year   int     `json:"year" validate:"required,gte=2000"`
	Apr    float64 `json:"apr" validate:"gte=0"`
	May    float64 `json:"may" validate:"gte=0"`
	Jun    float64 `json:"jun" validate:"gte=0"`
	Jul    float64 `json:"jul" validate:"gte=0"`
	Aug    float64 `json:"aug" validate:"gte=0"`
	Sep    float64 `json:"sep" validate:"gte=0"`
	Oct    float64 `json:"oct" validate:"gte=0"`
	Nov    float64 `json:"nov" validate:"gte=0"`
	Dec    float64 `json:"dec" validate:"gte=0"`
	Jan    float64 `json:"jan" validate:"gte=0"`
	Feb    float64 `json:"feb" validate:"gte=0"`
	Mar    float64 `json:"mar" validate:"gte=0"`
}

func (r targetRequest) toTarget() domain.MonthlyTarget {
	return domain.MonthlyTarget{
		SiteID: r.SiteID, FiscalYear: r.Year,
		Apr: r.Apr, May: r.May, Jun: r.Jun, Jul: r.Jul, Aug: r.Aug, Sep: r.Sep,
		Oct: r.Oct, Nov: r.Nov, Dec: r.Dec, Jan: r.Jan, Feb: r.Feb, Mar: r.Mar,
	}
}

func (h *handler) siteRoutes(api fiber.Router) {
	sites := api.Group("/sites")
	sites.Get("/", h.listSites)
	sites.Post("/", h.createSite)
	sites.Get("/:id", h.getSite)
	sites.Put("/:id", h.updateSite)
	sites.Delete("/:id", h.deleteSite)
	sites.Get("/:id/daily", h.siteDaily)
	sites.Get("/:id/monthly", h.siteMonthly)
	sites.Get("/:id/yearly", h.siteYearly)

	api.Get("/targets", h.listTargets)
	api.Post("/targets", h.upsertTarget)
}

func (h *handler) listSites(c *fiber.Ctx) error {
	sites, err := h.svcs.Sites.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(sites)
}

func (h *handler) getSite(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	site, err := h.svcs.Sites.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(site)
}

func (h *handler) createSite(c *fiber.Ctx) error {
	var req siteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	site := req.toSite(0)
	if err := h.svcs.Sites.Create(c.UserContext(), &site); err != nil {
		return err
	}
	return created(c, site)
}

func (h *handler) updateSite(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req siteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	site := req.toSite(id)
	if err := h.svcs.Sites.Update(c.UserContext(), &site); err != nil {
		return err
	}
	return c.JSON(site)
}

func (h *handler) deleteSite(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svcs.Sites.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) siteDaily(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
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
	rows, err := h.svcs.Dashboard.SiteDaily(c.UserContext(), id, from, to)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handler) siteMonthly(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.svcs.Dashboard.SiteMonthly(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handler) siteYearly(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	years, err := h.svcs.Dashboard.SiteYearly(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(years)
}

// listTargets returns every fiscal year of site_id, or only ?year= when given.
func (h *handler) listTargets(c *fiber.Ctx) error {
	siteID, err := queryID(c, "site_id")
	if err != nil {
		return err
	}
	fy, err := queryInt(c, "year", 0)
	if err != nil {
		return err
	}
	if fy != 0 {
		t, err := h.svcs.Targets.Get(c.UserContext(), siteID, fy)
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
	targets, err := h.svcs.Targets.List(c.UserContext(), siteID)
	if err != nil {
		return err
	}
	return c.JSON(targets)
}

func (h *handler) upsertTarget(c *fiber.Ctx) error {
	var req targetRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	t := req.toTarget()
	if err := h.svcs.Targets.Upsert(c.UserContext(), &t); err != nil {
		return err
	}
	return c.JSON(t)
}

package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/service"
)

const uploadField = "file"

func (h *handler) fileRoutes(api fiber.Router) {
	imp := api.Group("/import")
	imp.Post("/daily", h.importDaily)
	imp.Post("/fleet", h.importFleet)
	imp.Post("/matrix", h.importMatrix)

	exp := api.Group("/export")
	exp.Get("/daily", h.exportSite(func(c *fiber.Ctx, id int64) (*service.File, error) {
		from, err := queryDate(c, "from")
		if err != nil {
			return nil, err
		}
		to, err := queryDate(c, "to")
		if err != nil {
			return nil, err
		}
		return h.svcs.Exports.Daily(c.UserContext(), id, from, to)
	}))
	exp.Get("/monthly", h.exportSite(func(c *fiber.Ctx, id int64) (*service.File, error) {
		return h.svcs.Exports.Monthly(c.UserContext(), id)
	}))
	exp.Get("/yearly", h.exportSite(func(c *fiber.Ctx, id int64) (*service.File, error) {
		return h.svcs.Exports.Yearly(c.UserContext(), id)
	}))
	exp.Get("/report", h.exportSite(func(c *fiber.Ctx, id int64) (*service.File, error) {
		fy, err := queryFiscalYear(c)
		if err != nil {
			return nil, err
		}
		return h.svcs.Exports.Report(c.UserContext(), id, fy)
	}))
	exp.Get("/fleet-yearly", h.export(func(c *fiber.Ctx) (*service.File, error) {
		return h.svcs.Exports.FleetYearly(c.UserContext())
	}))
	exp.Get("/fleet-overview", h.export(func(c *fiber.Ctx) (*service.File, error) {
		return h.svcs.Exports.FleetOverview(c.UserContext())
	}))
	exp.Get("/matrix", h.export(func(c *fiber.Ctx) (*service.File, error) {
		fy, err := queryFiscalYear(c)
		if err != nil {
			return nil, err
		}
		return h.svcs.Exports.Matrix(c.UserContext(), fy)
	}))
}

// upload opens the multipart workbook. The caller closes it.
func upload(c *fiber.Ctx) (io.ReadCloser, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return nil, badRequest("multipart field %q is required", uploadField)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, badRequest("cannot read upload: %v", err)
	}
	return f, nil
}

func (h *handler) importDaily(c *fiber.Ctx) error {
	siteID, err := queryID(c, "site_id")
	if err != nil {
		return err
	}
	f, err := upload(c)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.svcs.Imports.Daily(c.UserContext(), siteID, f)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handler) importFleet(c *fiber.Ctx) error {
	f, err := upload(c)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.svcs.Imports.Fleet(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handler) importMatrix(c *fiber.Ctx) error {
	fy, err := queryFiscalYear(c)
	if err != nil {
		return err
	}
	f, err := upload(c)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.svcs.Imports.Matrix(c.UserContext(), f, fy)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handler) exportSite(render func(*fiber.Ctx, int64) (*service.File, error)) fiber.Handler {
	return h.export(func(c *fiber.Ctx) (*service.File, error) {
		id, err := queryID(c, "site_id")
		if err != nil {
			return nil, err
		}
		return render(c, id)
	})
}

// export sends the rendered file as an attachment, or with ?archive=true
// uploads it and returns the download link instead.
func (h *handler) export(render func(*fiber.Ctx) (*service.File, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := render(c)
		if err != nil {
			return err
		}
		if c.QueryBool("archive", false) {
			url, err := h.svcs.Exports.Archive(c.UserContext(), f)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{"name": f.Name, "url": url})
		}
		c.Attachment(f.Name)
		c.Set(fiber.HeaderContentType, f.ContentType)
		return c.Send(f.Data)
	}
}

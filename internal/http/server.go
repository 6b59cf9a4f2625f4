package http

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/service"
)

type handler struct {
	svcs     *service.Services
	validate *validator.Validate
	log      zerolog.Logger
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewApp builds the fiber app with the error envelope and panic recovery installed.
func NewApp(log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(log),
		BodyLimit:    16 * 1024 * 1024,
	})
	app.Use(recover.New())
	return app
}

// Register mounts the API under /api and the Prometheus scrape endpoint at /metrics.
// A nil gatherer leaves /metrics unmounted.
func Register(app *fiber.App, svcs *service.Services, gatherer prometheus.Gatherer, log zerolog.Logger) {
	h := &handler{svcs: svcs, validate: newValidator(), log: log}

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	h.siteRoutes(api)
	h.generationRoutes(api)
	h.viewRoutes(api)
	h.fileRoutes(api)
}

// ErrorHandler writes every failure as {"status":"error","message":...}.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := err.Error()

		var verrs validator.ValidationErrors
		var ferr *fiber.Error
		switch {
		case errors.As(err, &verrs):
			code, msg = fiber.StatusBadRequest, describe(verrs)
		case errors.Is(err, service.ErrInvalid):
			code = fiber.StatusBadRequest
		case errors.Is(err, repository.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, repository.ErrConflict):
			code = fiber.StatusConflict
		case errors.Is(err, service.ErrArchiveDisabled):
			code = fiber.StatusServiceUnavailable
		case errors.As(err, &ferr):
			code = ferr.Code
		default:
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
			msg = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{"status": "error", "message": msg})
	}
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func badRequest(format string, args ...interface{}) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

// bind decodes the JSON body into req and validates it.
func (h *handler) bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return badRequest("invalid request body")
	}
	return h.validate.Struct(req)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("%s must be a positive integer", name)
	}
	return id, nil
}

func queryID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, badRequest("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("%s must be a positive integer", name)
	}
	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := fiscal.ParseDate(raw)
	if err != nil {
		return nil, badRequest("%s: %v", name, err)
	}
	return &t, nil
}

func queryFiscalYear(c *fiber.Ctx) (int, error) {
	return queryInt(c, "year", fiscal.YearOf(time.Now()))
}

func created(c *fiber.Ctx, v interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}

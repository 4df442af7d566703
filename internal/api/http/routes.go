package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/angeli-sliit/AirSense/internal/airquality"
	"github.com/angeli-sliit/AirSense/internal/airquality/providers"
	"github.com/angeli-sliit/AirSense/internal/geocode"
)

var validate = validator.New()

const defaultWindowDays = 7

// RegisterRoutes wires the data endpoints into the Fiber app. Tier
// caps are enforced here, before any resolve/fetch/store work starts.
func RegisterRoutes(app fiber.Router, service *airquality.Service, tiers airquality.TierTable) {
	app.Post("/scrape", func(c *fiber.Ctx) error {
		var req scrapeRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Plan caps apply before input range validation so an
		// over-cap window is reported as a plan violation.
		plan := PlanFromContext(c)
		if err := tiers.CheckScrape(plan, req.Days); err != nil {
			return mapDomainError(err)
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := service.IngestWindow(c.Context(), req.City, req.Days)
		if err != nil {
			return mapDomainError(err)
		}

		return c.JSON(fiber.Map{
			"ok":       true,
			"city":     res.City,
			"inserted": res.Inserted,
			"lat":      res.Latitude,
			"lon":      res.Longitude,
		})
	})

	app.Post("/compare", func(c *fiber.Ctx) error {
		var req compareRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		plan := PlanFromContext(c)
		if err := tiers.CheckCompare(plan, len(req.Cities), req.Days); err != nil {
			return mapDomainError(err)
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Compare(c.Context(), req.Cities, req.Days)
		if err != nil {
			return mapDomainError(err)
		}

		return c.JSON(fiber.Map{
			"ok":         true,
			"window":     result.Window,
			"summaries":  result.Summaries,
			"comparison": result.Comparison,
		})
	})
}

// scrapeRequest is the single-city ingest body.
type scrapeRequest struct {
	City string `json:"city" validate:"required"`
	Days int    `json:"days" validate:"min=1,max=90"`
}

func (r *scrapeRequest) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(r); err != nil {
		return err
	}
	if r.Days == 0 {
		r.Days = defaultWindowDays
	}
	return nil
}

// compareRequest is the multi-city comparison body.
type compareRequest struct {
	Cities []string `json:"cities" validate:"required,min=1,dive,required"`
	Days   int      `json:"days" validate:"min=1,max=90"`
}

func (r *compareRequest) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(r); err != nil {
		return err
	}
	if r.Days == 0 {
		r.Days = defaultWindowDays
	}
	return nil
}

// mapDomainError translates the typed error taxonomy into client or
// server HTTP failures. Nothing is swallowed and nothing is retried.
func mapDomainError(err error) error {
	var planErr *airquality.PlanLimitError
	if errors.As(err, &planErr) {
		return fiber.NewError(fiber.StatusForbidden, planErr.Error())
	}

	if errors.Is(err, geocode.ErrCityNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if errors.Is(err, geocode.ErrUnavailable) || errors.Is(err, providers.ErrUpstreamTimeout) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	var httpErr *providers.UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return fiber.NewError(fiber.StatusBadGateway, httpErr.Error())
	}

	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/angeli-sliit/AirSense/internal/airquality"
)

const (
	headerAPIKey    = "X-API-KEY"
	headerPlan      = "X-PLAN"
	headerRequestID = "X-Request-ID"

	planLocalsKey = "plan"
)

// RequireAPIKey rejects requests whose X-API-KEY header does not
// match the configured key.
func RequireAPIKey(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(headerAPIKey) != apiKey {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing/invalid API key")
		}
		return c.Next()
	}
}

// PlanFromHeader derives the caller's plan tier from X-PLAN, falling
// back to the configured default and, for anything unrecognized, to
// the least-privileged tier.
func PlanFromHeader(defaultPlan airquality.Plan) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(planLocalsKey, airquality.ParsePlan(c.Get(headerPlan), defaultPlan))
		return c.Next()
	}
}

// PlanFromContext returns the plan attached by PlanFromHeader, or
// free when the middleware did not run.
func PlanFromContext(c *fiber.Ctx) airquality.Plan {
	if p, ok := c.Locals(planLocalsKey).(airquality.Plan); ok {
		return p
	}
	return airquality.PlanFree
}

// RequestID stamps each request with a UUID, echoed in the response
// for log correlation.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		return c.Next()
	}
}

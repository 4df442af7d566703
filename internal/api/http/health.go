package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger is the database side of the health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober is the upstream side of the health probe.
type Prober interface {
	Probe(ctx context.Context) error
}

// RegisterHealth wires the unauthenticated health endpoint. The
// response is "degraded" when either dependency fails; the endpoint
// itself always answers 200.
func RegisterHealth(app fiber.Router, db Pinger, upstream Prober) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		dbState := fiber.Map{"ok": true, "error": nil}
		upState := fiber.Map{"ok": true, "error": nil}
		status := "ok"

		if err := db.Ping(c.Context()); err != nil {
			dbState["ok"] = false
			dbState["error"] = err.Error()
			status = "degraded"
		}
		if err := upstream.Probe(c.Context()); err != nil {
			upState["ok"] = false
			upState["error"] = err.Error()
			status = "degraded"
		}

		return c.JSON(fiber.Map{
			"status":   status,
			"db":       dbState,
			"upstream": upState,
		})
	})
}

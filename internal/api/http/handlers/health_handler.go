package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ventanilla/servicedesk/internal/persistence"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
	version  string
}

// NewHealthHandler constructs handler.
func NewHealthHandler(pg *persistence.Postgres, rd *persistence.Redis, version string) *HealthHandler {
	return &HealthHandler{postgres: pg, redis: rd, version: version}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready GET /health/ready reports dependency health. Redis is optional and
// never fails readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if err := h.postgres.Ping(c.UserContext()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.Ping(c.UserContext()); err != nil {
		checks["redis"] = "degraded"
	} else {
		checks["redis"] = "ok"
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"checks": checks, "version": h.version})
}

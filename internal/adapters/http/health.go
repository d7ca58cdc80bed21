package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	checkOK            = "ok"
	checkNotConfigured = "not configured"
	readyProbeTimeout  = 3 * time.Second
)

// Readiness is the /v1/ready body.
type Readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler reports liveness only; it never touches dependencies.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler reports whether trips can be planned. The broker and the
// route cache only back optional features, so a missing one is listed
// without failing the probe; a configured one that is down does fail it.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyProbeTimeout)
		defer cancel()

		r := Readiness{Status: "ready", Checks: map[string]string{
			"planner": plannerCheck(deps),
			"nats":    natsCheck(deps),
			"cache":   cacheCheck(ctx, deps),
		}}

		code := fiber.StatusOK
		for name, state := range r.Checks {
			if state == checkOK || (name != "planner" && state == checkNotConfigured) {
				continue
			}
			r.Status = "not ready"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(r)
	}
}

func plannerCheck(deps *Dependencies) string {
	if deps.Trips == nil {
		return checkNotConfigured
	}
	return checkOK
}

func natsCheck(deps *Dependencies) string {
	switch {
	case deps.NATS == nil:
		return checkNotConfigured
	case !deps.NATS.IsConnected():
		return "disconnected"
	}
	return checkOK
}

func cacheCheck(ctx context.Context, deps *Dependencies) string {
	if deps.Cache == nil {
		return checkNotConfigured
	}
	if err := deps.Cache.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return checkOK
}

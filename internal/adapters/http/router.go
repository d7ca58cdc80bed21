package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/mjsgreen01/Instatrip/internal/pkg/metrics"
)

const (
	// planTimeout bounds a synchronous trip: one route lookup plus one
	// round of photo searches.
	planTimeout = 20 * time.Second

	// enqueueTimeout bounds publishing an asynchronous trip request.
	enqueueTimeout = 5 * time.Second

	// tripsPerMinute is per client IP. Every trip fans out to the photo
	// provider, so it is kept low.
	tripsPerMinute = 60
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())
	app.Use(rateLimiter())
	app.Use(securityHeaders)
	app.Use(DeprecationMiddleware(legacyRoutes))
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Probes skip the timeout wrapper; they do their own bounding.
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	plan := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, planTimeout) }

	v1 := app.Group("/v1")
	v1.Post("/search", plan(SearchHandler(deps)))
	v1.Get("/trip", plan(TripHandler(deps)))
	v1.Get("/waypoints", plan(WaypointsHandler(deps)))
	v1.Post("/trips", timeout.NewWithContext(RequestTripHandler(deps), enqueueTimeout))

	// Browser clients predating /v1
	app.Post("/search", plan(LegacySearchHandler(deps)))

	app.Post("/graphql", plan(GraphQLHandler(deps)))

	SetupDocs(app)

	app.Use("/ws", requireRelay(deps))
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

func rateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        tripsPerMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			switch c.Path() {
			case "/metrics", "/v1/health", "/v1/ready":
				return true
			}
			return false
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	})
}

func securityHeaders(c *fiber.Ctx) error {
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set("X-Frame-Options", "DENY")
	c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Set("X-API-Version", "1.0.0")
	return c.Next()
}

// requireRelay rejects /ws when there is no broker to relay from.
func requireRelay(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errUnavailable(c, "trip relay requires NATS")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/angrychow/train-ticket/internal/pkg/metrics"
)

const apiPrefix = "/api/v1/travelservice"

// RouterConfig tunes SetupRoutes.
type RouterConfig struct {
	// RequestTimeout bounds every API handler. Zero means 15s.
	RequestTimeout time.Duration
	// RateLimit is the number of requests per minute per IP. Zero disables it.
	RateLimit int
	// SpecDir holds openapi.yaml.
	SpecDir string
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, cfg RouterConfig) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited",
					"too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, cfg.RequestTimeout)
	}

	api := app.Group(apiPrefix)
	api.Get("/welcome", WelcomeHandler())

	api.Post("/trips", withTimeout(CreateTripHandler(deps)))
	api.Put("/trips", withTimeout(UpdateTripHandler(deps)))
	api.Get("/trips", withTimeout(ListTripsHandler(deps)))
	api.Post("/trips/routes", withTimeout(TripsByRoutesHandler(deps)))
	api.Post("/trips/left", withTimeout(QueryHandler(deps, false)))
	api.Post("/trips/left_parallel", withTimeout(QueryHandler(deps, true)))
	api.Post("/trips/import", withTimeout(ImportTripsHandler(deps)))
	api.Get("/trips/:tripId", withTimeout(GetTripHandler(deps)))
	api.Delete("/trips/:tripId", withTimeout(DeleteTripHandler(deps)))

	api.Get("/routes/:tripId", withTimeout(RouteByTripHandler(deps)))
	api.Get("/train_types/:tripId", withTimeout(TrainTypeByTripHandler(deps)))
	api.Post("/trip_detail", withTimeout(TripDetailHandler(deps)))
	api.Get("/admin_trip", withTimeout(AdminTripsHandler(deps)))

	// GraphQL
	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	// API documentation (Swagger UI)
	SetupDocs(app, cfg.SpecDir)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

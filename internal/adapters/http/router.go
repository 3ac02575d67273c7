package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Optimizing calls the travel-time provider many times per request.
	optimizeTimeout = 45 * time.Second
)

// midpointSunset is when the /midpoint alias goes away.
var midpointSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

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
	app.Use(DeprecationMiddleware([]DeprecatedRoute{{
		Path:        "/v1/groups/:id/midpoint",
		SunsetDate:  midpointSunset,
		Alternative: "/v1/groups/:id/meeting-point",
	}}))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/groups", timeout.NewWithContext(CreateGroupHandler(deps), requestTimeout))
	v1.Get("/groups/:id", timeout.NewWithContext(GetGroupHandler(deps), requestTimeout))
	v1.Get("/groups/:id/members", timeout.NewWithContext(ListMembersHandler(deps), requestTimeout))
	v1.Post("/groups/:id/members", timeout.NewWithContext(JoinGroupHandler(deps), requestTimeout))
	v1.Put("/groups/:id/members/:memberId/location", timeout.NewWithContext(UpdateLocationHandler(deps), requestTimeout))
	v1.Post("/groups/:id/meeting-point", timeout.NewWithContext(ComputeMeetingPointHandler(deps), optimizeTimeout))
	v1.Get("/groups/:id/meeting-point", timeout.NewWithContext(LatestMeetingPointHandler(deps), requestTimeout))
	v1.Get("/groups/:id/midpoint", timeout.NewWithContext(LatestMeetingPointHandler(deps), requestTimeout))
	v1.Post("/midpoint", timeout.NewWithContext(MidpointHandler(deps), requestTimeout))
	v1.Post("/optimize", timeout.NewWithContext(OptimizeHandler(deps), optimizeTimeout))
	v1.Get("/venues/nearby", timeout.NewWithContext(NearbyVenuesHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

// Package api assembles the HTTP application: middleware, public content,
// the chat relay, the widget socket and the admin dashboard API.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/portfolio/backend/internal/api/handlers"
	"github.com/portfolio/backend/internal/auth"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/middleware/security"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/widget"
)

type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BodyLimit      int
	AllowedOrigins string
	ConnectSources []string
	Development    bool
	// AccessLog enables the per-request log line.
	AccessLog bool
}

type Deps struct {
	Portfolio  *portfolio.Service
	Auth       auth.Authenticator
	Generator  handlers.Generator
	NewSession func() *widget.Session
}

func NewApp(opts Options, deps Deps) *fiber.App {
	if opts.AllowedOrigins == "" {
		opts.AllowedOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		BodyLimit:    opts.BodyLimit,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		ConnectSources: opts.ConnectSources,
		IsDevelopment:  opts.Development,
	}))

	chatHandler := handlers.NewChatHandler(deps.Generator)
	contentHandler := handlers.NewContentHandler(deps.Portfolio)
	contactHandler := handlers.NewContactHandler(deps.Portfolio)
	adminHandler := handlers.NewAdminHandler(deps.Portfolio, deps.Auth)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api")

	api.Get("/health", chatHandler.Health)
	api.Post("/chat", chatHandler.HandleChat)

	api.Get("/content", contentHandler.GetAll)
	api.Get("/content/:section", contentHandler.GetSection)
	api.Get("/profile", contentHandler.GetProfile)

	api.Post("/contact", contactHandler.Submit)

	// Login checks a JSON body, so it sits ahead of the Basic auth guard.
	api.Post("/admin/login", adminHandler.Login)

	admin := api.Group("/admin", basicauth.New(basicauth.Config{
		Realm:      "Portfolio Admin",
		Authorizer: deps.Auth.Authenticate,
		Unauthorized: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		},
	}))

	admin.Get("/profile", adminHandler.GetProfile)
	admin.Put("/profile", adminHandler.SaveProfile)
	admin.Post("/skills/bulk", adminHandler.BulkAddSkills)
	admin.Post("/technologies/bulk", adminHandler.BulkAddTechnologies)

	admin.Get("/:collection", adminHandler.List)
	admin.Post("/:collection", adminHandler.Create)
	admin.Put("/:collection/:id", adminHandler.Update)
	admin.Delete("/:collection/:id", adminHandler.Delete)

	if deps.NewSession != nil {
		wsHandler := handlers.NewWebSocketHandler(deps.NewSession)

		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))
	}

	return app
}

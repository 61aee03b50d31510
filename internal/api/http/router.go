package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Chat           *handlers.ChatHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// NewApp builds the fiber app. Path parameters are unescaped so display names
// with spaces match their owner.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := cfg.AuthMiddleware.Handle
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Users.Signup)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/verify", requireAuth, cfg.Users.Verify)

	chat := api.Group("/chat")
	chat.Post("/message", cfg.AuthMiddleware.Optional, cfg.Chat.Submit)
	chat.Get("/tickets/:username", requireAuth, auth.RequireOwnerOrAdmin("username"), cfg.Chat.ListByUsername)
	chat.Get("/ticket/:ticketNumber", cfg.Chat.GetByNumber)

	dashboard := api.Group("/dashboard", requireAuth)
	dashboard.Get("/user/profile", cfg.Dashboard.Profile)
	dashboard.Get("/user/tickets", cfg.Dashboard.UserTickets)

	admin := dashboard.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.Dashboard.AdminTickets)
	admin.Get("/stats", cfg.Dashboard.Stats)
	admin.Put("/tickets/:ticketNumber", cfg.Dashboard.UpdateTicket)
}

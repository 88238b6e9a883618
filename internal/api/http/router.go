package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/vnoc/incident-tracker/internal/api/http/handlers"
	"github.com/vnoc/incident-tracker/internal/auth"
	"github.com/vnoc/incident-tracker/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Attachments    *handlers.AttachmentsHandler
	Dashboard      *handlers.DashboardHandler
	Notifications  *handlers.NotificationsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// UploadDir is served read-only under /uploads when set.
	UploadDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadDir != "" {
		app.Static(handlers.PublicUploadPrefix, cfg.UploadDir)
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequirePrincipal())

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:tt_number", cfg.Tickets.GetTicket)
	tickets.Post("/:tt_number/acknowledge", cfg.Tickets.Acknowledge)
	tickets.Patch("/:tt_number/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:tt_number/remarks", cfg.Tickets.AddRemark)
	tickets.Get("/:tt_number/timeline", cfg.Tickets.Timeline)
	tickets.Post("/:tt_number/attachments", cfg.Attachments.Upload)
	tickets.Get("/:tt_number/attachments", cfg.Attachments.List)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", cfg.Dashboard.Stats)
	dashboard.Get("/needs-acknowledgement", cfg.Dashboard.NeedsAcknowledgement)
	dashboard.Get("/recent-updates", cfg.Dashboard.RecentUpdates)

	notifications := api.Group("/notifications")
	notifications.Get("/pending-actions", cfg.Notifications.PendingActions)
	notifications.Get("/count", cfg.Notifications.Count)
	notifications.Post("/mark-read", cfg.Notifications.MarkRead)

	api.Get("/users/me", cfg.Users.Me)
}

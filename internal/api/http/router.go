package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ventanilla/servicedesk/internal/api/http/handlers"
	"github.com/ventanilla/servicedesk/internal/identity"
	"github.com/ventanilla/servicedesk/internal/observability"
)

// RouterDependencies bundles everything the HTTP layer needs.
type RouterDependencies struct {
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Auth           *identity.Middleware
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	Reminders      *handlers.RemindersHandler
	Directory      *handlers.DirectoryHandler
	Health         *handlers.HealthHandler
	RequestTimeout time.Duration
}

// RegisterRoutes wires all endpoints onto the app. Health and reminder routes
// sit outside the session middleware; the reminder route carries its own cron
// token check.
func RegisterRoutes(app *fiber.App, deps RouterDependencies) {
	app.Use(RecoverMiddleware(deps.Logger))
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))
	app.Use(TimeoutMiddleware(deps.RequestTimeout))

	app.Get("/health/live", deps.Health.Live)
	app.Get("/health/ready", deps.Health.Ready)

	api := app.Group("/api/v1")
	api.Get("/reminders/run", deps.Reminders.Run)

	authed := api.Group("", deps.Auth.Handle)
	authed.Post("/tickets", deps.Tickets.CreateTicket)
	authed.Get("/tickets", deps.Tickets.ListTickets)
	authed.Get("/tickets/:id", deps.Tickets.GetTicket)
	authed.Post("/tickets/:id/start", deps.Tickets.StartTicket)
	authed.Post("/tickets/:id/close", deps.Tickets.CloseTicket)
	authed.Post("/tickets/:id/assign", deps.Tickets.AssignTicket)
	authed.Get("/directory/search", deps.Directory.Search)

	admin := authed.Group("/admin", identity.RequireAdmin())
	admin.Get("/metrics", deps.Admin.Metrics)
	admin.Get("/tickets/recent-closed", deps.Admin.RecentClosed)
}

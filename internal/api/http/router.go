package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-roster/internal/api/http/handlers"
	"github.com/spec-kit/oncall-roster/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Roster *handlers.RosterHandler
	Admin  *handlers.AdminHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes. Reads are public; everything that
// mutates the roster sits behind the admin gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api")
	api.Get("/document", cfg.Roster.Document)
	api.Get("/document/export", cfg.Roster.Export)
	api.Get("/today", cfg.Roster.Today)

	admin := api.Group("", cfg.Gate.Handle)
	admin.Post("/staff", cfg.Admin.CreateStaff)
	admin.Put("/staff/:id", cfg.Admin.UpdateStaff)
	admin.Delete("/staff/:id", cfg.Admin.DeleteStaff)

	admin.Post("/schedule/days/:day/owners/:id", cfg.Admin.AssignOwner)
	admin.Delete("/schedule/days/:day/owners/:id", cfg.Admin.UnassignOwner)
	admin.Put("/schedule/days/:day/owners/:id/window", cfg.Admin.SetTimeWindow)
	admin.Delete("/schedule/days/:day/owners/:id/window", cfg.Admin.ClearTimeWindow)
	admin.Put("/schedule/month", cfg.Admin.ApplyMonthYear)

	admin.Put("/support-contact", cfg.Admin.UpdateSupportContact)

	admin.Post("/document/import", cfg.Admin.Import)
	admin.Post("/document/reset", cfg.Admin.Reset)
}

package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Users             *handlers.UsersHandler
	Officers          *handlers.OfficersHandler
	Grievances        *handlers.GrievancesHandler
	OfficerGrievances *handlers.OfficerGrievancesHandler
	Admin             *handlers.AdminHandler
	Public            *handlers.PublicHandler
	AuthMiddleware    *auth.AuthMiddleware
	Metrics           *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))

	// no auth: tracking-code status lookup and aggregate counts
	app.Get("/public/grievances/:code", cfg.Public.TrackingLookup)
	app.Get("/public/stats", cfg.Public.Stats)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/officers/login", cfg.Officers.Login)
	authGroup.Post("/password/reset/request", cfg.Officers.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Officers.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Officers.ChangePassword)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireUser())
	users.Get("/me", cfg.Users.Me)

	grievances := app.Group("/grievances", cfg.AuthMiddleware.Handle, auth.RequireUser())
	grievances.Post("", cfg.Grievances.Create)
	grievances.Get("", cfg.Grievances.List)
	grievances.Get("/:id", cfg.Grievances.Get)
	grievances.Post("/:id/submit", cfg.Grievances.Submit)
	grievances.Post("/:id/notes", cfg.Grievances.AddNote)
	grievances.Post("/:id/close", cfg.Grievances.Close)

	officer := app.Group("/officer", cfg.AuthMiddleware.Handle, auth.RequireOfficerRole())
	officer.Get("/grievances", cfg.OfficerGrievances.List)
	officer.Get("/grievances/:id", cfg.OfficerGrievances.Get)
	officer.Post("/grievances/:id/acknowledge", cfg.OfficerGrievances.Acknowledge)
	officer.Patch("/grievances/:id/status", cfg.OfficerGrievances.UpdateStatus)
	officer.Post("/grievances/:id/escalate", cfg.OfficerGrievances.Escalate)
	officer.Get("/grievances/:id/escalations", cfg.OfficerGrievances.Escalations)
	officer.Get("/grievances/:id/activity", cfg.OfficerGrievances.Activity)
	officer.Post("/grievances/:id/notes", cfg.OfficerGrievances.AddNote)
	officer.Get("/grievances/:id/notifications", cfg.OfficerGrievances.Notifications)
	officer.Post("/grievances/:id/notifications/resend", cfg.OfficerGrievances.ResendNotification)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireOfficerRole(domain.OfficerRoleAdmin))
	admin.Post("/officers", cfg.Officers.Create)
	admin.Get("/projects", cfg.Admin.ListProjects)
	admin.Post("/projects", cfg.Admin.CreateProject)
	admin.Patch("/projects/:id", cfg.Admin.UpdateProject)
	admin.Get("/levels", cfg.Admin.ListLevels)
	admin.Post("/levels", cfg.Admin.CreateLevel)
	admin.Put("/levels/:id", cfg.Admin.UpdateLevel)
	admin.Delete("/levels/:id", cfg.Admin.DeleteLevel)
	admin.Get("/regions", cfg.Admin.ListRegions)
	admin.Post("/regions", cfg.Admin.CreateRegion)
	admin.Put("/regions/:id", cfg.Admin.UpdateRegion)
	admin.Get("/regions/:id/subtree", cfg.Admin.Subtree)
	admin.Get("/templates", cfg.Admin.ListTemplates)
	admin.Post("/templates", cfg.Admin.CreateTemplate)
	admin.Put("/templates/:id", cfg.Admin.UpdateTemplate)
	admin.Post("/sla/sweep", cfg.Admin.SweepNow)

	reporting := app.Group("/reporting", cfg.AuthMiddleware.Handle, auth.RequireOfficerRole(domain.OfficerRoleAdmin, domain.OfficerRoleRegionLead))
	reporting.Get("/stats", cfg.Admin.Stats)
}

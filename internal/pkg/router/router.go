// Package router wires the HTTP routes to their controllers.
package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartscan-app/smartscan/app/controllers"
	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
	"github.com/smartscan-app/smartscan/internal/pkg/security"
)

// Deps carries the controllers the router mounts.
type Deps struct {
	Tokens *security.TokenIssuer
	Auth   *controllers.AuthController
	Status *controllers.StatusController
	Upload *controllers.UploadController
	Record *controllers.RecordController
	Line   *controllers.LineController
	Admin  *controllers.AdminController
	Export *controllers.ExportController
}

// InstallRouter mounts all routes on the app.
func InstallRouter(app *fiber.App, deps Deps) {
	auth := middleware.RequireAuth(deps.Tokens)

	// Public surface: account creation, login, plan catalog and the
	// signature-authenticated messaging webhook.
	app.Post("/register", deps.Auth.Register)
	app.Post("/login", deps.Auth.Login)
	app.Post("/webhook", deps.Line.Webhook)

	app.Post("/upload", auth, deps.Upload.Upload)

	api := app.Group("/api")
	api.Get("/plans", deps.Status.Plans)

	authed := api.Group("", auth)

	authed.Get("/status", deps.Status.Status)
	authed.Get("/subscription", deps.Status.Subscription)

	authed.Get("/records", deps.Record.List)
	authed.Post("/records/bulk-delete", deps.Record.BulkDelete)
	authed.Post("/records/bulk-update", deps.Record.BulkUpdate)
	authed.Get("/records/:id", deps.Record.Get)
	authed.Put("/records/:id", deps.Record.Update)
	authed.Delete("/records/:id", deps.Record.Delete)

	authed.Get("/line-token", deps.Line.GenerateToken)
	authed.Get("/line-status", deps.Line.Status)
	authed.Post("/line-disconnect", deps.Line.Disconnect)

	authed.Get("/export/csv", deps.Export.CSV)
	authed.Get("/export/excel", deps.Export.Excel)
	authed.Post("/export/selected/csv", deps.Export.CSVSelected)
	authed.Post("/export/selected/excel", deps.Export.ExcelSelected)

	admin := app.Group("/admin", auth, deps.Admin.RequireAdmin)
	admin.Get("/users", deps.Admin.ListUsers)
	admin.Post("/users", deps.Admin.CreateUser)
	admin.Delete("/users/:id", deps.Admin.DeleteUser)
	admin.Put("/users/:id/subscription", deps.Admin.UpdateSubscription)
}

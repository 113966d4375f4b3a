package router

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/smartscan-app/smartscan/app/controllers"
)

func mountedRoutes(t *testing.T) map[string]bool {
	t.Helper()
	app := fiber.New()
	// Handlers are registered but never invoked here, so the
	// controllers can stay unwired.
	InstallRouter(app, Deps{
		Auth:   controllers.NewAuthController(nil, nil),
		Status: controllers.NewStatusController(nil, nil),
		Upload: controllers.NewUploadController(nil),
		Record: controllers.NewRecordController(nil),
		Line:   controllers.NewLineController(nil, nil, nil),
		Admin:  controllers.NewAdminController(nil, nil),
		Export: controllers.NewExportController(nil),
	})

	routes := map[string]bool{}
	for _, route := range app.GetRoutes() {
		routes[fmt.Sprintf("%s %s", route.Method, route.Path)] = true
	}
	return routes
}

func TestRouterMountsClientPaths(t *testing.T) {
	routes := mountedRoutes(t)

	expected := []string{
		"POST /register",
		"POST /login",
		"POST /upload",
		"POST /webhook",
		"GET /api/plans",
		"GET /api/status",
		"GET /api/subscription",
		"GET /api/records",
		"GET /api/records/:id",
		"PUT /api/records/:id",
		"DELETE /api/records/:id",
		"POST /api/records/bulk-delete",
		"POST /api/records/bulk-update",
		"GET /api/line-token",
		"GET /api/line-status",
		"POST /api/line-disconnect",
		"GET /api/export/csv",
		"GET /api/export/excel",
		"POST /api/export/selected/csv",
		"POST /api/export/selected/excel",
		"GET /admin/users",
		"POST /admin/users",
		"DELETE /admin/users/:id",
		"PUT /admin/users/:id/subscription",
	}
	for _, route := range expected {
		assert.True(t, routes[route], "missing route %s", route)
	}
}

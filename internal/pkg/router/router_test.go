package router

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourstoryourvoice/osov/app/controllers"
	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
	apiv1 "github.com/ourstoryourvoice/osov/internal/api/v1"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
)

func newTestApp(t *testing.T) (*fiber.App, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(dbtest.New(t))
	services := &controllers.Services{Repos: repos, Sessions: session.New()}
	doc, err := apiv1.LoadSpec(context.Background())
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: services.ErrorHandler})
	InstallRouter(app, Deps{
		Services:    services,
		Controllers: controllers.New(services),
		API:         apiv1.NewAPIServer(repos, doc),
	})
	return app, repos
}

func TestRoutes(t *testing.T) {
	app, repos := newTestApp(t)

	tests := []struct {
		method   string
		path     string
		status   int
		location string
	}{
		{fiber.MethodGet, "/healthz", fiber.StatusOK, ""},
		{fiber.MethodGet, "/api/v1/ping", fiber.StatusOK, ""},
		{fiber.MethodGet, "/admin/dashboard", fiber.StatusSeeOther, "/asignin?next=%2Fadmin%2Fdashboard"},
		{fiber.MethodGet, "/history", fiber.StatusSeeOther, "/signin?next=%2Fhistory"},
		{fiber.MethodPost, "/contact", fiber.StatusForbidden, ""},
		{fiber.MethodPost, "/webhooks/stripe", fiber.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get(fiber.HeaderLocation))
			}
		})
	}

	t.Run("maintenance", func(t *testing.T) {
		require.NoError(t, repos.SiteConfig.SetValue(models.CONFIG_MAINTENANCE_MODE, "true"))
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

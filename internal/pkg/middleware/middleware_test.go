package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
	"github.com/ourstoryourvoice/osov/internal/pkg/entitlements"
	appsession "github.com/ourstoryourvoice/osov/internal/pkg/session"
	"github.com/ourstoryourvoice/osov/internal/pkg/usercontext"
)

func asRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role == "" {
			usercontext.Set(c, usercontext.UserContext{})
		} else {
			usercontext.Set(c, usercontext.UserContext{UserID: 1, Role: role, IsLoggedIn: true})
		}
		return c.Next()
	}
}

func ok(c *fiber.Ctx) error { return c.SendString("ok") }

func newGateApp(t *testing.T, role string, maintenance bool) *fiber.App {
	t.Helper()
	repo := repository.NewSiteConfigRepository(dbtest.New(t))
	if maintenance {
		require.NoError(t, repo.SetValue(models.CONFIG_MAINTENANCE_MODE, "true"))
	}

	app := fiber.New()
	app.Use(asRole(role), MaintenanceGate(repo))
	app.Get("/*", ok)
	return app
}

func status(t *testing.T, app *fiber.App, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestMaintenanceGate(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		maintenance bool
		path        string
		want        int
	}{
		{"off lets anonymous through", "", false, "/stories", fiber.StatusOK},
		{"anonymous blocked", "", true, "/stories", fiber.StatusServiceUnavailable},
		{"user blocked", models.ROLE_USER, true, "/", fiber.StatusServiceUnavailable},
		{"moderator passes", models.ROLE_MODERATOR, true, "/stories", fiber.StatusOK},
		{"admin passes", models.ROLE_ADMIN, true, "/", fiber.StatusOK},
		{"static exempt", "", true, "/static/css/site.css", fiber.StatusOK},
		{"admin area exempt", "", true, "/admin", fiber.StatusOK},
		{"admin signin exempt", "", true, "/asignin", fiber.StatusOK},
		{"webhooks exempt", "", true, "/webhooks/stripe", fiber.StatusOK},
		{"prefix must be a segment", "", true, "/administrators", fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newGateApp(t, tt.role, tt.maintenance)
			assert.Equal(t, tt.want, status(t, app, tt.path))
		})
	}
}

func TestRequireAuthRedirectsWithNext(t *testing.T) {
	app := fiber.New()
	app.Use(asRole(""))
	app.Get("/donate/history", RequireAuth, ok)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/donate/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin?next=%2Fdonate%2Fhistory", resp.Header.Get("Location"))
}

func TestRequireRole(t *testing.T) {
	for _, tt := range []struct {
		role string
		want int
	}{
		{"", fiber.StatusSeeOther},
		{models.ROLE_USER, fiber.StatusFound},
		{models.ROLE_MODERATOR, fiber.StatusOK},
	} {
		app := fiber.New()
		app.Use(asRole(tt.role))
		app.Get("/admin", RequireRole(entitlements.Staff()...), ok)
		assert.Equal(t, tt.want, status(t, app, "/admin"), "role %q", tt.role)
	}
}

func TestRequireCapability(t *testing.T) {
	app := fiber.New()
	app.Use(asRole(models.ROLE_MODERATOR))
	app.Get("/admin/settings", RequireCapability(entitlements.ManageSite), ok)
	app.Get("/admin/stories", RequireCapability(entitlements.ManageContent), ok)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/settings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	assert.Equal(t, fiber.StatusOK, status(t, app, "/admin/stories"))
}

func TestUserContextLoadsRoleFromDatabase(t *testing.T) {
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	u, err := models.NewUser("Ada", "Lovelace", "ada@example.org", "secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(u))

	store := session.New()
	app := fiber.New()
	app.Get("/login", func(c *fiber.Ctx) error {
		return appsession.Login(c, store, u.ID, models.ROLE_USER)
	})
	app.Use(UserContext(store, users))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		return c.JSON(fiber.Map{"id": uc.UserID, "role": uc.Role, "staff": uc.IsStaff()})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/login", nil))
	require.NoError(t, err)
	cookie := strings.Split(resp.Header.Get("Set-Cookie"), ";")[0]
	require.NotEmpty(t, cookie)

	require.NoError(t, users.UpdateRole(u.ID, models.ROLE_MODERATOR))

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("Cookie", cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)

	var body struct {
		ID    uint   `json:"id"`
		Role  string `json:"role"`
		Staff bool   `json:"staff"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, u.ID, body.ID)
	assert.Equal(t, models.ROLE_MODERATOR, body.Role)
	assert.True(t, body.Staff)
}

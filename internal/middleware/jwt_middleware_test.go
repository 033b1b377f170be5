package middleware_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()
	authService := services.NewAuthService(nil, "secret", time.Hour)
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(authService), func(c *fiber.Ctx) error {
		return c.JSON(middleware.IdentityFrom(c))
	})
	app.Get("/admin", middleware.AuthRequired(authService), middleware.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, authService
}

func TestAuthRequired(t *testing.T) {
	app, authService := newApp(t)
	token, err := authService.IssueToken(&models.User{ID: "u1", Role: models.RoleCustomer})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no credentials", "", "", fiber.StatusUnauthorized},
		{"bad scheme", "Basic abc", "", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", "", fiber.StatusUnauthorized},
		{"bearer token", "Bearer " + token, "", fiber.StatusOK},
		{"session cookie", "", token, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", middleware.SessionCookie+"="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == fiber.StatusUnauthorized {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "AUTHENTICATION_REQUIRED", body["error"])
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	app, authService := newApp(t)

	customer, err := authService.IssueToken(&models.User{ID: "u1", Role: models.RoleCustomer})
	require.NoError(t, err)
	admin, err := authService.IssueToken(&models.User{ID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/core/policy"
	"devroots-sacco/internal/pkg/jwt"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: testSecret, AccessTokenMins: 15}}
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(claims, testSecret, 15)
	require.NoError(t, err)
	return token
}

// newApp mounts guards in front of a handler that echoes the caller's locals
func newApp(guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{AuthMiddleware(testConfig())}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":   c.Locals(LocalUserID),
			"member_id": c.Locals(LocalMemberID),
			"username":  c.Locals(LocalUsername),
		})
	})
	app.Get("/", handlers...)
	return app
}

func call(t *testing.T, app *fiber.App, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()

	t.Run("MissingToken", func(t *testing.T) {
		status, body := call(t, app, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Access token required", body["error"])
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := jwt.GenerateAccessToken(jwt.Claims{UserID: 1}, "other-secret", 15)
		require.NoError(t, err)
		status, body := call(t, app, token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Invalid access token", body["error"])
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := jwt.GenerateAccessToken(jwt.Claims{UserID: 1}, testSecret, -1)
		require.NoError(t, err)
		status, body := call(t, app, token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Access token expired", body["error"])
	})

	t.Run("BearerHeader", func(t *testing.T) {
		status, body := call(t, app, signed(t, jwt.Claims{UserID: 4, MemberID: 9, Username: "amina.okello.1001"}))
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 4, body["user_id"])
		assert.EqualValues(t, 9, body["member_id"])
		assert.Equal(t, "amina.okello.1001", body["username"])
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signed(t, jwt.Claims{UserID: 5})})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestRequirePermission(t *testing.T) {
	app := newApp(RequirePermission(policy.LoansApprove))

	tests := []struct {
		name   string
		claims jwt.Claims
		want   int
	}{
		{"Granted", jwt.Claims{UserID: 1, Permissions: []string{policy.LoansApprove}}, fiber.StatusOK},
		{"Wildcard", jwt.Claims{UserID: 1, Permissions: []string{"loans.*"}}, fiber.StatusOK},
		{"Staff", jwt.Claims{UserID: 1, IsStaff: true}, fiber.StatusOK},
		{"AdminGroup", jwt.Claims{UserID: 1, Groups: []string{domain.GroupAdmin}}, fiber.StatusOK},
		{"OtherNamespace", jwt.Claims{UserID: 1, Permissions: []string{"savings.*"}}, fiber.StatusForbidden},
		{"Nothing", jwt.Claims{UserID: 1}, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := call(t, app, signed(t, tt.claims))
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestRequirePermission_NoIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequirePermission(policy.MembersView), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminOnly(t *testing.T) {
	app := newApp(AdminOnly())

	status, _ := call(t, app, signed(t, jwt.Claims{UserID: 1, Permissions: []string{"*"}}))
	assert.Equal(t, fiber.StatusForbidden, status, "permissions alone do not make an administrator")

	status, _ = call(t, app, signed(t, jwt.Claims{UserID: 1, Groups: []string{domain.GroupAdmin}}))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMemberOnly(t *testing.T) {
	app := newApp(MemberOnly())

	status, body := call(t, app, signed(t, jwt.Claims{UserID: 1, IsStaff: true}))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "This area is only available to members", body["error"])

	status, _ = call(t, app, signed(t, jwt.Claims{UserID: 2, MemberID: 3}))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestForcePasswordChange(t *testing.T) {
	app := newApp(ForcePasswordChange())

	status, body := call(t, app, signed(t, jwt.Claims{UserID: 2, MemberID: 3, MustChangePassword: true}))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "password_change_required", body["error"])

	status, _ = call(t, app, signed(t, jwt.Claims{UserID: 2, MemberID: 3}))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(ClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, " 203.0.113.7 , 10.0.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", string(body))
}

func TestNoCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/", NoCacheHeaders(), func(c *fiber.Ctx) error { return response.Success(c, "ok", nil) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "no-cache", resp.Header.Get(fiber.HeaderPragma))
}

func TestPrivateCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", PrivateCacheHeaders(time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", PrivateCacheHeaders(time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, "private, max-age=60", resp.Header.Get(fiber.HeaderCacheControl))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get(fiber.HeaderCacheControl))
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"devroots-sacco/internal/adapters/http/middleware"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamID(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path string
		want int
	}{
		{"/items/12", fiber.StatusOK},
		{"/items/0", fiber.StatusBadRequest},
		{"/items/-3", fiber.StatusBadRequest},
		{"/items/abc", fiber.StatusBadRequest},
		{"/items/99999999999", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestActorAndPage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(3))
		c.Locals(middleware.LocalUsername, "teller")
		c.Locals(middleware.LocalMemberID, uint(8))
		return c.JSON(fiber.Map{"actor": actorFrom(c), "page": pageFrom(c).Window(), "member": memberIDFrom(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.2")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Actor  services.Actor `json:"actor"`
		Page   services.Page  `json:"page"`
		Member uint           `json:"member"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, services.Actor{UserID: 3, Username: "teller", IP: "198.51.100.2"}, body.Actor)
	assert.Equal(t, services.Page{Offset: 200, Limit: 100}, body.Page)
	assert.EqualValues(t, 8, body.Member)
}

func TestPageFrom_HugePage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.JSON(pageFrom(c).Window()) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?page=9223372036854775807&limit=100", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var page services.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, (pagination.MaxPage-1)*100, page.Offset)
	assert.Positive(t, page.Offset)
}

// Requests rejected before reaching the ledger never touch the service
func TestSavingsHandler_RejectsBadInput(t *testing.T) {
	h := NewSavingsHandler(nil)
	app := fiber.New()
	app.Post("/accounts/:id/deposit", h.Deposit)
	app.Post("/accounts/:id/withdraw", h.Withdraw)

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"BadID", "/accounts/x/deposit", `{"amount":"10"}`, "Invalid account ID"},
		{"BadBody", "/accounts/1/withdraw", `{"amount":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

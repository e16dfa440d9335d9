package handlers

import (
	"strconv"

	"devroots-sacco/internal/adapters/http/middleware"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"

	"github.com/gofiber/fiber/v2"
)

// actorFrom builds the audit actor for the current request
func actorFrom(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals(middleware.LocalUserID).(uint)
	username, _ := c.Locals(middleware.LocalUsername).(string)
	return services.Actor{
		UserID:   userID,
		Username: username,
		IP:       middleware.ClientIP(c),
	}
}

// memberIDFrom returns the member linked to the signed-in user, 0 for none
func memberIDFrom(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalMemberID).(uint)
	return id
}

// paramID parses a numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pageFrom reads the page and limit query parameters
func pageFrom(c *fiber.Ctx) pagination.Request {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}

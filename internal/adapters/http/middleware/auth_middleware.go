package middleware

import (
	"errors"
	"strings"

	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/policy"
	"devroots-sacco/internal/pkg/jwt"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthMiddleware
const (
	LocalUserID             = "userID"
	LocalMemberID           = "memberID"
	LocalUsername           = "username"
	LocalIdentity           = "identity"
	LocalMustChangePassword = "mustChangePassword"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Token from cookie or Authorization header
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Set user info in context
		setLocals(c, claims)

		return c.Next()
	}
}

// RequirePermission allows the request when the identity holds perm
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := c.Locals(LocalIdentity).(policy.Identity)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !policy.HasPermission(id, perm) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// AdminOnly allows staff accounts and members of the Admin group
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := c.Locals(LocalIdentity).(policy.Identity)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !policy.IsAdmin(id) {
			return response.Forbidden(c, "Administrator access required")
		}
		return c.Next()
	}
}

// MemberOnly allows logins linked to a member record
func MemberOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		memberID, _ := c.Locals(LocalMemberID).(uint)
		if memberID == 0 {
			return response.Forbidden(c, "This area is only available to members")
		}
		return c.Next()
	}
}

// ForcePasswordChange blocks members still on a temporary password.
// Mount it after AuthMiddleware on every group except change-password,
// logout and me.
func ForcePasswordChange() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if must, _ := c.Locals(LocalMustChangePassword).(bool); must {
			return c.Status(fiber.StatusForbidden).JSON(response.Response{
				Success: false,
				Message: "You must change your temporary password before continuing",
				Error:   "password_change_required",
			})
		}
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func setLocals(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalMemberID, claims.MemberID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalMustChangePassword, claims.MustChangePassword)
	c.Locals(LocalIdentity, policy.Identity{
		UserID:      claims.UserID,
		IsStaff:     claims.IsStaff,
		Groups:      claims.Groups,
		Permissions: claims.Permissions,
	})
}

package handlers

import (
	"strconv"

	"devroots-sacco/internal/core/policy"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles activity logs, settings and roles
type AdminHandler struct {
	activityService *services.ActivityService
	settingsService *services.SettingsService
	roleService     *services.RoleService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	activityService *services.ActivityService,
	settingsService *services.SettingsService,
	roleService *services.RoleService,
) *AdminHandler {
	return &AdminHandler{
		activityService: activityService,
		settingsService: settingsService,
		roleService:     roleService,
	}
}

// ============================================================
// Activity logs
// ============================================================

// ListActivity lists the activity trail
// @Summary List activity logs
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param member_id query int false "Member ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /activity-logs [get]
func (h *AdminHandler) ListActivity(c *fiber.Ctx) error {
	pg := pageFrom(c)
	var memberID uint
	if raw := c.Query("member_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid member_id")
		}
		memberID = uint(id)
	}

	logs, total, err := h.activityService.List(c.Context(), memberID, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list activity logs")
	}

	return response.Success(c, "Activity logs retrieved successfully", pagination.NewResponse(logs, pg, total))
}

// ============================================================
// Settings
// ============================================================

// GetSettings returns the system settings
// @Summary Get settings
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /settings [get]
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.Get(c.Context())
	if err != nil {
		return response.FromError(c, err, "Failed to get settings")
	}

	return response.Success(c, "Settings retrieved successfully", settings)
}

// UpdateSettings changes the system settings
// @Summary Update settings
// @Description Change the default interest rate, membership fee and loan limits
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateSettingsInput true "Settings to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /settings [put]
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req services.UpdateSettingsInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	settings, err := h.settingsService.Update(c.Context(), actorFrom(c), req)
	if err != nil {
		return response.FromError(c, err, "Failed to update settings")
	}

	return response.Success(c, "Settings updated successfully", settings)
}

// ============================================================
// Roles
// ============================================================

// ListRoles lists roles and the permissions they may carry
// @Summary List roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /roles [get]
func (h *AdminHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.roleService.List(c.Context())
	if err != nil {
		return response.FromError(c, err, "Failed to list roles")
	}

	return response.Success(c, "Roles retrieved successfully", fiber.Map{
		"roles":       roles,
		"permissions": policy.All,
	})
}

// CreateRole creates a role
// @Summary Create role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RoleInput true "Role"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /roles [post]
func (h *AdminHandler) CreateRole(c *fiber.Ctx) error {
	var req services.RoleInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	role, err := h.roleService.Create(c.Context(), req)
	if err != nil {
		return response.FromError(c, err, "Failed to create role")
	}

	return response.Created(c, "Role created successfully", role)
}

// UpdateRole replaces a role
// @Summary Update role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param body body services.RoleInput true "Role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /roles/{id} [put]
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid role ID")
	}

	var req services.RoleInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	role, err := h.roleService.Update(c.Context(), id, req)
	if err != nil {
		return response.FromError(c, err, "Failed to update role")
	}

	return response.Success(c, "Role updated successfully", role)
}

// DeleteRole deletes a role
// @Summary Delete role
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /roles/{id} [delete]
func (h *AdminHandler) DeleteRole(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid role ID")
	}

	if err := h.roleService.Delete(c.Context(), id); err != nil {
		return response.FromError(c, err, "Failed to delete role")
	}

	return response.Success(c, "Role deleted successfully", nil)
}

// AssignRole sets or clears a user's role
// @Summary Assign role
// @Description Takes effect the next time the user's token is issued
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AssignRoleInput true "Assignment"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /roles/assign [put]
func (h *AdminHandler) AssignRole(c *fiber.Ctx) error {
	var req services.AssignRoleInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.roleService.Assign(c.Context(), actorFrom(c), req); err != nil {
		return response.FromError(c, err, "Failed to assign role")
	}

	return response.Success(c, "Role assigned successfully", nil)
}

package handlers

import (
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles the admin inbox
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List lists admin notifications
// @Summary List admin notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	pg := pageFrom(c)

	items, total, err := h.notificationService.ListAdmin(c.Context(), c.QueryBool("unread"), pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list notifications")
	}

	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(items, pg, total))
}

// Summary returns the unread count and latest notifications
// @Summary Inbox summary
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notifications/summary [get]
func (h *NotificationHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.notificationService.Summary(c.Context())
	if err != nil {
		return response.FromError(c, err, "Failed to get notification summary")
	}

	return response.Success(c, "Notification summary retrieved successfully", summary)
}

// MarkRead marks one notification read
// @Summary Mark notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.MarkAdminRead(c.Context(), id); err != nil {
		return response.FromError(c, err, "Failed to mark notification read")
	}

	return response.Success(c, "Notification marked as read", nil)
}

// MarkAllRead marks every notification read
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.notificationService.MarkAllAdminRead(c.Context())
	if err != nil {
		return response.FromError(c, err, "Failed to mark notifications read")
	}

	return response.Success(c, "Notifications marked as read", fiber.Map{"updated": n})
}

// ListSupport lists member support tickets
// @Summary List support tickets
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /notifications/support [get]
func (h *NotificationHandler) ListSupport(c *fiber.Ctx) error {
	pg := pageFrom(c)

	items, total, err := h.notificationService.ListSupport(c.Context(), pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list support tickets")
	}

	return response.Success(c, "Support tickets retrieved successfully", pagination.NewResponse(items, pg, total))
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vnoc/incident-tracker/internal/api/dto"
	"github.com/vnoc/incident-tracker/internal/auth"
	"github.com/vnoc/incident-tracker/internal/service"
)

// NotificationsHandler serves pending-action notifications.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// PendingActions GET /api/notifications/pending-actions.
func (h *NotificationsHandler) PendingActions(c *fiber.Ctx) error {
	actions, err := h.service.PendingActions(c.UserContext(), service.DefaultPendingLimit)
	if err != nil {
		return err
	}
	count := len(actions)
	return c.JSON(dto.Envelope{Success: true, Data: actions, Count: &count})
}

// Count GET /api/notifications/count.
func (h *NotificationsHandler) Count(c *fiber.Ctx) error {
	count, err := h.service.Count(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Count: &count})
}

// MarkRead POST /api/notifications/mark-read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	h.service.MarkRead(c.UserContext(), auth.Actor(c))
	return c.JSON(dto.Envelope{Success: true, Message: "All notifications marked as read"})
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"regula-notificador/internal/middleware"
	"regula-notificador/internal/service/notification"
)

type NotificationHandler struct {
	notifService notification.Service
}

func NewNotificationHandler(notifService notification.Service) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	notifications, err := h.notifService.ListForProfessional(c.Context(), claims.TenantID, claims.ProfessionalID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(notifications)
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	count, err := h.notifService.CountUnread(c.Context(), claims.TenantID, claims.ProfessionalID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) MarkAllViewed(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	count, err := h.notifService.MarkAllViewed(c.Context(), claims.TenantID, claims.ProfessionalID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) ClearAll(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	count, err := h.notifService.ClearAll(c.Context(), claims.TenantID, claims.ProfessionalID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) ListViews(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	notifications, err := h.notifService.ListViews(c.Context(), claims.TenantID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(notifications)
}

func (h *NotificationHandler) ViewDetails(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.BadRequest("Invalid notification ID")
	}

	notif, err := h.notifService.ViewDetails(c.Context(), claims.TenantID, notifID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(notif)
}

package handler

import (
	"github.com/gofiber/fiber/v2"

	"regula-notificador/internal/middleware"
	"regula-notificador/internal/service/messaging"
)

type MessageHandler struct {
	messagingService messaging.Service
}

func NewMessageHandler(messagingService messaging.Service) *MessageHandler {
	return &MessageHandler{messagingService: messagingService}
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Enqueue is the fire-and-forget enqueue API consumed by other modules (e.g.
// the case-status-change handler). It acknowledges synchronously with the job
// id; delivery state is polled via the admin queue endpoints.
func (h *MessageHandler) Enqueue(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return middleware.Unauthorized("Staff member not found")
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if req.Phone == "" || req.Message == "" {
		return middleware.BadRequest("phone and message are required")
	}

	result, err := h.messagingService.EnqueueMessage(c.Context(), claims.TenantID, req.Phone, req.Message)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"regula-notificador/internal/middleware"
	"regula-notificador/internal/service/messaging"
)

type InstanceHandler struct {
	messagingService messaging.Service
}

func NewInstanceHandler(messagingService messaging.Service) *InstanceHandler {
	return &InstanceHandler{messagingService: messagingService}
}

func (h *InstanceHandler) List(c *fiber.Ctx) error {
	instances, err := h.messagingService.ListInstances(c.Context())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(instances)
}

func (h *InstanceHandler) Connect(c *fiber.Ctx) error {
	tenantID, err := uuid.Parse(c.Params("tenantId"))
	if err != nil {
		return middleware.BadRequest("Invalid tenant ID")
	}

	result, err := h.messagingService.ConnectInstance(c.Context(), tenantID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *InstanceHandler) Disconnect(c *fiber.Ctx) error {
	tenantID, err := uuid.Parse(c.Params("tenantId"))
	if err != nil {
		return middleware.BadRequest("Invalid tenant ID")
	}

	if err := h.messagingService.DisconnectInstance(c.Context(), tenantID); err != nil {
		return err
	}
	return c.Status(fiber.StatusNoContent).SendString("")
}

func (h *InstanceHandler) UpdateConfig(c *fiber.Ctx) error {
	tenantID, err := uuid.Parse(c.Params("tenantId"))
	if err != nil {
		return middleware.BadRequest("Invalid tenant ID")
	}

	var input messaging.UpdateConfigInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	cfg, err := h.messagingService.UpdateConfig(c.Context(), tenantID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(cfg)
}

func (h *InstanceHandler) RegenerateCredential(c *fiber.Ctx) error {
	tenantID, err := uuid.Parse(c.Params("tenantId"))
	if err != nil {
		return middleware.BadRequest("Invalid tenant ID")
	}

	cfg, err := h.messagingService.RegenerateCredential(c.Context(), tenantID)
	if err != nil {
		return err
	}

	// The new credential is returned once, on regeneration only.
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"instance_name": cfg.InstanceName,
		"credential":    cfg.Credential,
	})
}

// Send lets an operator send an arbitrary message on a tenant's behalf,
// through the rate-limited human-triggered path.
func (h *InstanceHandler) Send(c *fiber.Ctx) error {
	tenantID, err := uuid.Parse(c.Params("tenantId"))
	if err != nil {
		return middleware.BadRequest("Invalid tenant ID")
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if req.Phone == "" || req.Message == "" {
		return middleware.BadRequest("phone and message are required")
	}

	result, err := h.messagingService.SendMessage(c.Context(), tenantID, req.Phone, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(result)
}

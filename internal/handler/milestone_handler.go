package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"regula-notificador/internal/middleware"
	"regula-notificador/internal/service/milestone"
)

type MilestoneHandler struct {
	milestoneService *milestone.Service
}

func NewMilestoneHandler(milestoneService *milestone.Service) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// Scan triggers an on-demand milestone scan, optionally scoped to one tenant
// via the tenant_id query parameter.
func (h *MilestoneHandler) Scan(c *fiber.Ctx) error {
	var tenantID *uuid.UUID
	if raw := c.Query("tenant_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return middleware.BadRequest("Invalid tenant ID")
		}
		tenantID = &parsed
	}

	summary, err := h.milestoneService.Scan(c.Context(), tenantID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

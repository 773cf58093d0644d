package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"regula-notificador/internal/service/outbound"
)

type QueueHandler struct {
	queue *outbound.Queue
}

func NewQueueHandler(queue *outbound.Queue) *QueueHandler {
	return &QueueHandler{queue: queue}
}

func (h *QueueHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.queue.Counts(c.Context())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(counts)
}

func (h *QueueHandler) ListFailed(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	jobs, err := h.queue.FailedJobs(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(jobs)
}

func (h *QueueHandler) RetryFailed(c *fiber.Ctx) error {
	jobID := c.Params("jobId")

	if err := h.queue.RetryJob(c.Context(), jobID); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"job_id": jobID,
		"status": "QUEUED",
	})
}

func (h *QueueHandler) ClearFailed(c *fiber.Ctx) error {
	count, err := h.queue.ClearFailed(c.Context())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *QueueHandler) JobState(c *fiber.Ctx) error {
	job, err := h.queue.JobState(c.Context(), c.Params("jobId"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(job)
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodhub/catalog-api/internal/store"
	"prodhub/catalog-api/utils"
)

// GetJobStatus retrieves the status of an upload job. This is the only way
// to observe the outcome of an import.
// GET /api/v1/jobs/:jobId
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	jobIDStr := c.Params("jobId")
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	job, err := h.Ledger.GetJob(jobID)
	if errors.Is(err, store.ErrJobNotFound) {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found.")
	}
	if err != nil {
		h.Logger.Errorf("Error fetching job %s: %v", jobID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve job status.")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}

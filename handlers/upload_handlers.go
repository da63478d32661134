package handlers

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"prodhub/catalog-api/internal/jobs"
	"prodhub/catalog-api/utils"
)

// UploadProducts accepts a CSV file upload and starts the asynchronous
// import. The job record is created synchronously so its PENDING state is
// observable before any processing happens; the response carries the job id
// and returns without waiting for the import.
// POST /api/v1/products/upload
func (h *ApplicationHandler) UploadProducts(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No file uploaded.")
	}

	fileHandle, err := file.Open()
	if err != nil {
		h.Logger.Errorf("Error opening uploaded file: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error opening file: %v", err))
	}
	defer fileHandle.Close()

	content, err := io.ReadAll(fileHandle)
	if err != nil {
		h.Logger.Errorf("Error reading uploaded file: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error reading file: %v", err))
	}

	// The ingestion engine assumes decoded text; reject undecodable bytes
	// here, before any job exists.
	if !utf8.Valid(content) {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "File is not UTF-8 encoded.")
	}

	job, err := h.Ledger.CreateJob()
	if err != nil {
		h.Logger.Errorf("Error creating upload job: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create upload job.")
	}

	importJob := jobs.NewImportProductsJob(job.JobID, string(content), h.Ledger, h.Products, h.Logger)
	if err := h.Dispatcher.Submit(importJob); err != nil {
		// Don't leave the record stuck in PENDING when it will never run.
		if ferr := h.Ledger.Fail(job.JobID, fmt.Sprintf("could not queue import: %v", err)); ferr != nil {
			h.Logger.Errorf("Error failing unqueued job %s: %v", job.JobID, ferr)
		}
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Import queue is full, try again later.")
	}

	h.Logger.WithField("job_id", job.JobID.String()).Info("Accepted product CSV upload")
	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"job_id": job.JobID})
}

// BulkDeleteProducts triggers the asynchronous purge of every product.
// POST /api/v1/products/bulk_delete
func (h *ApplicationHandler) BulkDeleteProducts(c *fiber.Ctx) error {
	purgeJob := jobs.NewPurgeProductsJob(h.Products, h.Logger)
	if err := h.Dispatcher.Submit(purgeJob); err != nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Task queue is full, try again later.")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"message": "Bulk delete task started. All products will be deleted in the background.",
	})
}

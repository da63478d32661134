package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodhub/catalog-api/models"
	"prodhub/catalog-api/utils"
)

// webhookTestTimeout bounds the outbound test ping so a dead endpoint
// cannot hold the request open.
const webhookTestTimeout = 5 * time.Second

// CreateWebhookRequest defines the expected request body for registering a webhook.
type CreateWebhookRequest struct {
	URL       string `json:"url" validate:"required,url"`
	EventType string `json:"event_type" validate:"required,oneof=product.created product.updated product.deleted"`
	IsActive  *bool  `json:"is_active"`
}

// UpdateWebhookRequest defines the request body for partially updating a webhook.
type UpdateWebhookRequest struct {
	URL       *string `json:"url,omitempty" validate:"omitempty,url"`
	EventType *string `json:"event_type,omitempty" validate:"omitempty,oneof=product.created product.updated product.deleted"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// ListWebhooks lists webhook subscriptions with optional event_type and
// is_active filters.
// GET /api/v1/webhooks
func (h *ApplicationHandler) ListWebhooks(c *fiber.Ctx) error {
	query := h.DB.From("webhooks").Select("*", "", false)

	if eventType := c.Query("event_type"); eventType != "" {
		query = query.Eq("event_type", eventType)
	}
	if isActive := c.Query("is_active"); isActive != "" {
		query = query.Eq("is_active", isActive)
	}

	var webhooks []models.Webhook
	if _, err := query.ExecuteTo(&webhooks); err != nil {
		h.Logger.Errorf("Error listing webhooks: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list webhooks.")
	}
	if webhooks == nil {
		webhooks = []models.Webhook{}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, webhooks)
}

// CreateWebhook registers a webhook subscription.
// POST /api/v1/webhooks
func (h *ApplicationHandler) CreateWebhook(c *fiber.Ctx) error {
	payload := new(CreateWebhookRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse webhook JSON: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %s", strings.Join(utils.FormatValidationErrors(err), "; ")))
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	record := map[string]interface{}{
		"url":        payload.URL,
		"event_type": payload.EventType,
		"is_active":  isActive,
	}

	var results []models.Webhook
	_, err := h.DB.From("webhooks").
		Insert(record, false, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		h.Logger.Errorf("Error creating webhook: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create webhook: %v", err))
	}
	if len(results) == 0 {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to create webhook, no record returned.")
	}

	return utils.RespondWithJSON(c, fiber.StatusCreated, results[0])
}

// GetWebhook fetches one webhook by id.
// GET /api/v1/webhooks/:id
func (h *ApplicationHandler) GetWebhook(c *fiber.Ctx) error {
	webhook, status, err := h.fetchWebhook(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, status, err.Error())
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, webhook)
}

// UpdateWebhook partially updates a webhook.
// PATCH /api/v1/webhooks/:id
func (h *ApplicationHandler) UpdateWebhook(c *fiber.Ctx) error {
	webhookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid webhook ID format")
	}

	payload := new(UpdateWebhookRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse webhook JSON: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %s", strings.Join(utils.FormatValidationErrors(err), "; ")))
	}

	updates := map[string]interface{}{}
	if payload.URL != nil {
		updates["url"] = *payload.URL
	}
	if payload.EventType != nil {
		updates["event_type"] = *payload.EventType
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	if len(updates) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No fields to update.")
	}

	var results []models.Webhook
	_, err = h.DB.From("webhooks").
		Update(updates, "representation", "").
		Eq("id", webhookID.String()).
		ExecuteTo(&results)
	if err != nil {
		h.Logger.Errorf("Error updating webhook %s: %v", webhookID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not update webhook: %v", err))
	}
	if len(results) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Webhook not found.")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, results[0])
}

// DeleteWebhook deletes a webhook subscription.
// DELETE /api/v1/webhooks/:id
func (h *ApplicationHandler) DeleteWebhook(c *fiber.Ctx) error {
	webhookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid webhook ID format")
	}

	var results []models.Webhook
	_, err = h.DB.From("webhooks").
		Delete("representation", "").
		Eq("id", webhookID.String()).
		ExecuteTo(&results)
	if err != nil {
		h.Logger.Errorf("Error deleting webhook %s: %v", webhookID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not delete webhook.")
	}
	if len(results) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Webhook not found.")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"message": "Webhook deleted."})
}

// TestWebhook sends a fixed test payload to the webhook's URL and reports
// how the endpoint responded. Fire-and-forget semantics: nothing about the
// delivery is persisted.
// POST /api/v1/webhooks/:id/test
func (h *ApplicationHandler) TestWebhook(c *fiber.Ctx) error {
	webhook, status, err := h.fetchWebhook(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, status, err.Error())
	}
	if !webhook.IsActive {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Webhook is disabled.")
	}

	testPayload := map[string]interface{}{
		"event_type": "test.event",
		"data": map[string]interface{}{
			"message": "This is a test payload from Product Importer.",
			"sku":     "SKU-TEST",
			"name":    "Test Product",
		},
	}
	body, err := json.Marshal(testPayload)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not build test payload.")
	}

	client := &http.Client{Timeout: webhookTestTimeout}
	resp, err := client.Post(webhook.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return utils.RespondWithError(c, fiber.StatusRequestTimeout, "Test failed: Connection timed out.")
		}
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Test failed: %v", err))
	}
	defer resp.Body.Close()

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"message":     fmt.Sprintf("Test payload sent. Endpoint responded with status %d.", resp.StatusCode),
		"status_code": resp.StatusCode,
	})
}

// fetchWebhook loads a webhook by its path id, mapping the outcome to an
// HTTP status for the caller.
func (h *ApplicationHandler) fetchWebhook(idParam string) (*models.Webhook, int, error) {
	webhookID, err := uuid.Parse(idParam)
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Errorf("Invalid webhook ID format")
	}

	var webhooks []models.Webhook
	_, err = h.DB.From("webhooks").
		Select("*", "", false).
		Eq("id", webhookID.String()).
		Limit(1, "").
		ExecuteTo(&webhooks)
	if err != nil {
		h.Logger.Errorf("Error fetching webhook %s: %v", webhookID, err)
		return nil, fiber.StatusInternalServerError, fmt.Errorf("Could not retrieve webhook.")
	}
	if len(webhooks) == 0 {
		return nil, fiber.StatusNotFound, fmt.Errorf("Webhook not found.")
	}
	return &webhooks[0], fiber.StatusOK, nil
}

package models

import "github.com/google/uuid"

// Webhook event types other systems can subscribe to.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// Webhook represents the structure of a webhook subscription in the database.
type Webhook struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	EventType string    `json:"event_type"`
	IsActive  bool      `json:"is_active"`
}

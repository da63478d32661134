package models

import "strings"

// Product represents the structure of a product in the database.
// SKU is the unique business key and is always stored normalized
// (surrounding whitespace trimmed, upper-cased).
type Product struct {
	ID          *int64 `json:"id,omitempty"` // Assigned by the database
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// NormalizeSKU canonicalizes a raw sku value. Normalization is idempotent,
// so "  sku-1 " and "SKU-1" collapse to the same key.
func NormalizeSKU(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

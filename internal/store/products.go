package store

import (
	"fmt"

	postgrest "github.com/supabase-community/postgrest-go"

	"prodhub/catalog-api/models"
)

const productsTable = "products"

// ProductStore writes product records keyed by sku.
type ProductStore struct {
	client *postgrest.Client
}

func NewProductStore(client *postgrest.Client) *ProductStore {
	return &ProductStore{client: client}
}

// UpsertBatch inserts the given products, replacing name, description and
// active on a sku conflict. Callers are responsible for keeping batches to a
// bounded size and for deduplicating skus within one batch — PostgREST
// rejects an upsert that touches the same key twice in a single statement.
func (s *ProductStore) UpsertBatch(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	_, _, err := s.client.From(productsTable).
		Insert(products, true, "sku", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

// DeleteAll unconditionally removes every product. Deleting from an empty
// table is a successful no-op.
func (s *ProductStore) DeleteAll() error {
	// PostgREST refuses an unfiltered delete; sku is non-empty for every
	// row, so this filter matches the whole table.
	_, _, err := s.client.From(productsTable).
		Delete("", "").
		Neq("sku", "").
		Execute()
	if err != nil {
		return fmt.Errorf("deleting all products: %w", err)
	}
	return nil
}

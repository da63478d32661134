// Package importer turns raw CSV text into normalized product rows ready for
// upserting. It owns the row-level rules of an import: the header row defines
// column names, sku is required per row, name/description default to empty,
// and duplicate skus within one file collapse last-write-wins.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"prodhub/catalog-api/models"
)

// ParseProducts parses decoded CSV text into products to upsert.
//
// The first record is the header. Rows are matched to columns by header name,
// so column order is free and rows may be ragged (missing trailing cells read
// as empty). Rows whose sku is empty after normalization are skipped silently
// and do not count toward the result. A later row with the same normalized
// sku replaces an earlier one in place, preserving first-occurrence order.
//
// A structural error (e.g. a bad quoted field) aborts the whole parse; the
// caller decides what that means for the surrounding job.
func ParseProducts(content string) ([]models.Product, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	var products []models.Product
	position := make(map[string]int)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		sku := models.NormalizeSKU(cell(record, columns, "sku"))
		if sku == "" {
			continue
		}

		product := models.Product{
			SKU:         sku,
			Name:        cell(record, columns, "name"),
			Description: cell(record, columns, "description"),
			Active:      true,
		}

		if i, seen := position[sku]; seen {
			products[i] = product
			continue
		}
		position[sku] = len(products)
		products = append(products, product)
	}

	return products, nil
}

// cell returns the value of the named column in record, or "" when the
// column is absent from the header or the row is too short to reach it.
func cell(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

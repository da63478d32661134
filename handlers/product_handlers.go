package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	postgrest "github.com/supabase-community/postgrest-go"

	"prodhub/catalog-api/models"
	"prodhub/catalog-api/utils"
)

var validate = validator.New()

// CreateProductRequest defines the expected request body for creating a product.
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// UpdateProductRequest defines the request body for partially updating a
// product. Only provided fields are written.
type UpdateProductRequest struct {
	SKU         *string `json:"sku,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// ListProducts lists products with optional filtering, search, ordering and
// pagination.
// @Summary List products
// @Description Lists products. Supports sku/name/active equality filters, a search term across sku, name and description, ordering by name or sku, and limit/offset pagination.
// @Tags products
// @Produce json
// @Router /products [get]
func (h *ApplicationHandler) ListProducts(c *fiber.Ctx) error {
	query := h.DB.From("products").Select("*", "", false)

	if sku := c.Query("sku"); sku != "" {
		query = query.Eq("sku", models.NormalizeSKU(sku))
	}
	if name := c.Query("name"); name != "" {
		query = query.Eq("name", name)
	}
	if active := c.Query("active"); active != "" {
		query = query.Eq("active", active)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Or(fmt.Sprintf("sku.ilike.%s,name.ilike.%s,description.ilike.%s", pattern, pattern, pattern), "")
	}

	column, ascending := parseOrdering(c.Query("ordering"))
	query = query.Order(column, &postgrest.OrderOpts{Ascending: ascending})

	limit := c.QueryInt("limit")
	offset := c.QueryInt("offset")
	if limit > 0 {
		query = query.Range(offset, offset+limit-1, "")
	}

	var products []models.Product
	if _, err := query.ExecuteTo(&products); err != nil {
		h.Logger.Errorf("Error listing products: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list products.")
	}
	if products == nil {
		products = []models.Product{}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, products)
}

// CreateProduct creates a single product. The sku is normalized the same way
// the CSV import normalizes it, so manually created products and imported
// rows share one key space.
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Router /products [post]
func (h *ApplicationHandler) CreateProduct(c *fiber.Ctx) error {
	payload := new(CreateProductRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse product JSON: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %s", strings.Join(utils.FormatValidationErrors(err), "; ")))
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	record := map[string]interface{}{
		"sku":         models.NormalizeSKU(payload.SKU),
		"name":        payload.Name,
		"description": payload.Description,
		"active":      active,
	}

	var results []models.Product
	_, err := h.DB.From("products").
		Insert(record, false, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		h.Logger.Errorf("Error creating product: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create product: %v", err))
	}
	if len(results) == 0 {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to create product, no record returned.")
	}

	return utils.RespondWithJSON(c, fiber.StatusCreated, results[0])
}

// GetProduct fetches one product by id.
// GET /api/v1/products/:id
func (h *ApplicationHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseProductID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid product ID format")
	}

	var products []models.Product
	_, err = h.DB.From("products").
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Limit(1, "").
		ExecuteTo(&products)
	if err != nil {
		h.Logger.Errorf("Error fetching product %d: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve product.")
	}
	if len(products) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Product not found.")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, products[0])
}

// UpdateProduct partially updates a product.
// PATCH /api/v1/products/:id
func (h *ApplicationHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseProductID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid product ID format")
	}

	payload := new(UpdateProductRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse product JSON: %v", err))
	}

	updates := map[string]interface{}{}
	if payload.SKU != nil {
		updates["sku"] = models.NormalizeSKU(*payload.SKU)
	}
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Active != nil {
		updates["active"] = *payload.Active
	}
	if len(updates) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No fields to update.")
	}

	var results []models.Product
	_, err = h.DB.From("products").
		Update(updates, "representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		ExecuteTo(&results)
	if err != nil {
		h.Logger.Errorf("Error updating product %d: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not update product: %v", err))
	}
	if len(results) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Product not found.")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, results[0])
}

// DeleteProduct deletes one product by id.
// DELETE /api/v1/products/:id
func (h *ApplicationHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseProductID(c)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid product ID format")
	}

	var results []models.Product
	_, err = h.DB.From("products").
		Delete("representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		ExecuteTo(&results)
	if err != nil {
		h.Logger.Errorf("Error deleting product %d: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not delete product.")
	}
	if len(results) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Product not found.")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"message": "Product deleted."})
}

func parseProductID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// parseOrdering maps an ordering query value ("name", "-sku", ...) onto a
// column and direction, defaulting to name ascending.
func parseOrdering(raw string) (string, bool) {
	ascending := true
	if strings.HasPrefix(raw, "-") {
		ascending = false
		raw = strings.TrimPrefix(raw, "-")
	}
	switch raw {
	case "sku":
		return "sku", ascending
	case "name":
		return "name", ascending
	default:
		return "name", true
	}
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokoroti/backend/internal/domain/catalog"
)

// RecipeItemRequest is one ingredient line of a product recipe
type RecipeItemRequest struct {
	IngredientID uuid.UUID       `json:"ingredient_id" binding:"required"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
}

// CreateProductRequest adds a new product to the catalog
type CreateProductRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price" binding:"required"`
	Recipe      []RecipeItemRequest `json:"recipe"`
}

// UpdateProductRequest changes an existing product. Nil fields are left
// untouched.
type UpdateProductRequest struct {
	Description *string              `json:"description"`
	Price       *decimal.Decimal     `json:"price"`
	Active      *bool                `json:"active"`
	Recipe      *[]RecipeItemRequest `json:"recipe"`
}

// RecipeItemResponse represents one recipe line in API responses
type RecipeItemResponse struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
	Unit         string          `json:"unit"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Price       decimal.Decimal      `json:"price"`
	Active      bool                 `json:"active"`
	Recipe      []RecipeItemResponse `json:"recipe"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ToProductResponse converts a domain product to its API shape
func ToProductResponse(p *catalog.Product) ProductResponse {
	recipe := make([]RecipeItemResponse, 0, len(p.Recipe))
	for _, item := range p.Recipe {
		recipe = append(recipe, RecipeItemResponse{
			IngredientID: item.IngredientID,
			QtyPerUnit:   item.QtyPerUnit,
			Unit:         item.Unit,
		})
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Active:      p.Active,
		Recipe:      recipe,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

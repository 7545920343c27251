package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	// FindByID finds a product by its ID, recipe included
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByName finds a product by exact name, case-insensitive
	FindByName(ctx context.Context, name string) (*Product, error)
	// FindAllActive returns all active products with their recipes
	FindAllActive(ctx context.Context) ([]Product, error)
	// FindAll returns products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	// Save persists a product and its recipe
	Save(ctx context.Context, product *Product) error
}

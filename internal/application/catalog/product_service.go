package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// CatalogInvalidator drops any cached catalog snapshot after a write
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProductService manages the product catalog behind the admin API. Writes
// invalidate the cached snapshot the chat flow reads from.
type ProductService struct {
	products    catalog.ProductRepository
	ingredients inventory.IngredientRepository
	invalidator CatalogInvalidator
	logger      *zap.Logger
}

// NewProductService creates a new ProductService. The invalidator may be nil
// when no catalog cache is configured.
func NewProductService(
	products catalog.ProductRepository,
	ingredients inventory.IngredientRepository,
	invalidator CatalogInvalidator,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products:    products,
		ingredients: ingredients,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Create adds a new product with its recipe
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if existing, err := s.products.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	product, err := catalog.NewProduct(req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		product.SetDescription(req.Description)
	}

	if err := s.attachRecipe(ctx, product, req.Recipe); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Update changes price, description, active flag or recipe of a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Price != nil {
		if err := product.SetPrice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		product.SetDescription(*req.Description)
	}
	if req.Active != nil {
		product.SetActive(*req.Active)
	}
	if req.Recipe != nil {
		product.Recipe = nil
		if err := s.attachRecipe(ctx, product, *req.Recipe); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("product updated", zap.String("product_id", product.ID.String()))

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID returns one product with its recipe
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns products matching the filter
func (s *ProductService) List(ctx context.Context, filter shared.Filter) ([]ProductResponse, error) {
	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses, nil
}

// attachRecipe validates every referenced ingredient exists, then attaches
// the recipe lines to the product.
func (s *ProductService) attachRecipe(ctx context.Context, product *catalog.Product, items []RecipeItemRequest) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.IngredientID)
	}
	known, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	knownSet := make(map[uuid.UUID]struct{}, len(known))
	for i := range known {
		knownSet[known[i].ID] = struct{}{}
	}

	for _, item := range items {
		if _, ok := knownSet[item.IngredientID]; !ok {
			return shared.NewDomainError("INVALID_INGREDIENT",
				fmt.Sprintf("Unknown ingredient %s in recipe", item.IngredientID))
		}
		if err := product.AddRecipeItem(item.IngredientID, item.QtyPerUnit, item.Unit); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductService) invalidateCatalog(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/inventory"
)

// RequirementCalculator explodes ordered product quantities into aggregated
// ingredient requirements using the catalog recipes. It only reads, so it is
// safe to call repeatedly and speculatively around reservations.
type RequirementCalculator struct {
	productRepo    catalog.ProductRepository
	ingredientRepo inventory.IngredientRepository
}

// NewRequirementCalculator creates a new RequirementCalculator
func NewRequirementCalculator(
	productRepo catalog.ProductRepository,
	ingredientRepo inventory.IngredientRepository,
) *RequirementCalculator {
	return &RequirementCalculator{
		productRepo:    productRepo,
		ingredientRepo: ingredientRepo,
	}
}

// Calculate resolves each ordered item against the catalog by exact
// case-insensitive name, sums the required quantity per ingredient across all
// items, and evaluates every ingredient's live stock posture. Unmatched
// products and products without a recipe become warnings, not failures.
// The result is sorted by descending shortage.
func (c *RequirementCalculator) Calculate(ctx context.Context, items []OrderedItem) (*RequirementReport, error) {
	report := &RequirementReport{
		Requirements: make([]inventory.IngredientRequirement, 0),
		Warnings:     make([]string, 0),
	}
	if len(items) == 0 {
		return report, nil
	}

	products, err := c.productRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	required := make(map[uuid.UUID]decimal.Decimal)
	ingredientOrder := make([]uuid.UUID, 0)

	for _, item := range items {
		if item.Quantity <= 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s diabaikan karena jumlahnya tidak valid", item.Name))
			continue
		}
		product := catalog.FindByExactName(products, item.Name)
		if product == nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s tidak ditemukan di katalog", item.Name))
			continue
		}
		if !product.HasRecipe() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s belum memiliki resep bahan", product.Name))
			continue
		}

		orderedQty := decimal.NewFromInt(int64(item.Quantity))
		for _, recipeItem := range product.Recipe {
			if _, seen := required[recipeItem.IngredientID]; !seen {
				ingredientOrder = append(ingredientOrder, recipeItem.IngredientID)
			}
			required[recipeItem.IngredientID] = required[recipeItem.IngredientID].
				Add(recipeItem.QtyPerUnit.Mul(orderedQty))
		}
	}

	if len(ingredientOrder) == 0 {
		return report, nil
	}

	ingredients, err := c.ingredientRepo.FindByIDs(ctx, ingredientOrder)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inventory.Ingredient, len(ingredients))
	for idx := range ingredients {
		byID[ingredients[idx].ID] = &ingredients[idx]
	}

	for _, ingredientID := range ingredientOrder {
		ingredient, ok := byID[ingredientID]
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("bahan %s tidak ditemukan", ingredientID))
			continue
		}
		report.Requirements = append(report.Requirements,
			inventory.NewIngredientRequirement(ingredient, required[ingredientID]))
	}

	inventory.SortByShortage(report.Requirements)
	return report, nil
}

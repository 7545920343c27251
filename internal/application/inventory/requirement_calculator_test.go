package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/inventory"
)

func newIngredientWithLot(t *testing.T, name string, stock int64) *inventory.Ingredient {
	t.Helper()
	ing, err := inventory.NewIngredient(name, "kg")
	require.NoError(t, err)
	if stock > 0 {
		now := time.Now()
		_, err = ing.AddLot(decimal.NewFromInt(stock), now.AddDate(0, 0, 5), now, "", decimal.Zero)
		require.NoError(t, err)
	}
	return ing
}

func newProductWithRecipe(t *testing.T, name string, price int64, recipe map[*inventory.Ingredient]int64) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.NewFromInt(price))
	require.NoError(t, err)
	for ing, qty := range recipe {
		require.NoError(t, p.AddRecipeItem(ing.ID, decimal.NewFromInt(qty), ing.Unit))
	}
	return *p
}

func TestRequirementCalculator_Calculate(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates requirements across items sharing an ingredient", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 20)
		sugar := newIngredientWithLot(t, "Gula Pasir", 10)
		bread := newProductWithRecipe(t, "Roti Tawar", 12000, map[*inventory.Ingredient]int64{flour: 2})
		cake := newProductWithRecipe(t, "Bolu Pandan", 20000, map[*inventory.Ingredient]int64{flour: 3, sugar: 1})

		calc := NewRequirementCalculator(
			&fakeProductRepo{products: []catalog.Product{bread, cake}},
			newFakeIngredientRepo(flour, sugar),
		)

		report, err := calc.Calculate(ctx, []OrderedItem{
			{Name: "roti tawar", Quantity: 3},
			{Name: "Bolu Pandan", Quantity: 2},
		})
		require.NoError(t, err)
		require.Len(t, report.Requirements, 2)
		assert.Empty(t, report.Warnings)

		byName := make(map[string]inventory.IngredientRequirement)
		for _, req := range report.Requirements {
			byName[req.IngredientName] = req
		}
		// 3*2 + 2*3 = 12 flour, 2*1 = 2 sugar
		assert.True(t, byName["Tepung Terigu"].Required.Equal(decimal.NewFromInt(12)))
		assert.True(t, byName["Gula Pasir"].Required.Equal(decimal.NewFromInt(2)))
		assert.True(t, report.AllSufficient())
	})

	t.Run("unmatched products become warnings not failures", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 20)
		bread := newProductWithRecipe(t, "Roti Tawar", 12000, map[*inventory.Ingredient]int64{flour: 2})

		calc := NewRequirementCalculator(
			&fakeProductRepo{products: []catalog.Product{bread}},
			newFakeIngredientRepo(flour),
		)

		report, err := calc.Calculate(ctx, []OrderedItem{
			{Name: "Roti Tawar", Quantity: 1},
			{Name: "Donat Cokelat", Quantity: 2},
		})
		require.NoError(t, err)
		require.Len(t, report.Requirements, 1)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "Donat Cokelat")
	})

	t.Run("product without recipe is skipped with a warning", func(t *testing.T) {
		noRecipe, err := catalog.NewProduct("Air Mineral", decimal.NewFromInt(5000))
		require.NoError(t, err)

		calc := NewRequirementCalculator(
			&fakeProductRepo{products: []catalog.Product{*noRecipe}},
			newFakeIngredientRepo(),
		)

		report, err := calc.Calculate(ctx, []OrderedItem{{Name: "Air Mineral", Quantity: 1}})
		require.NoError(t, err)
		assert.Empty(t, report.Requirements)
		require.Len(t, report.Warnings, 1)
	})

	t.Run("worst shortage sorts first", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10) // shortage 2 at 12 required
		butter := newIngredientWithLot(t, "Mentega", 1)       // shortage 5 at 6 required
		cake := newProductWithRecipe(t, "Bolu Pandan", 20000, map[*inventory.Ingredient]int64{flour: 2, butter: 1})

		calc := NewRequirementCalculator(
			&fakeProductRepo{products: []catalog.Product{cake}},
			newFakeIngredientRepo(flour, butter),
		)

		report, err := calc.Calculate(ctx, []OrderedItem{{Name: "Bolu Pandan", Quantity: 6}})
		require.NoError(t, err)
		require.Len(t, report.Requirements, 2)
		assert.Equal(t, "Mentega", report.Requirements[0].IngredientName)
		assert.False(t, report.AllSufficient())
		assert.Len(t, report.Insufficient(), 2)
	})

	t.Run("repeated calls have no side effects", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		bread := newProductWithRecipe(t, "Roti Tawar", 12000, map[*inventory.Ingredient]int64{flour: 2})

		calc := NewRequirementCalculator(
			&fakeProductRepo{products: []catalog.Product{bread}},
			newFakeIngredientRepo(flour),
		)

		items := []OrderedItem{{Name: "Roti Tawar", Quantity: 2}}
		first, err := calc.Calculate(ctx, items)
		require.NoError(t, err)
		second, err := calc.Calculate(ctx, items)
		require.NoError(t, err)

		assert.True(t, first.Requirements[0].Required.Equal(second.Requirements[0].Required))
		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(10)))
	})
}

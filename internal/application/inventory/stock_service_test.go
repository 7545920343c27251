package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

func newStockService(ingredients ...*inventory.Ingredient) (*StockService, *fakeIngredientRepo) {
	repo := newFakeIngredientRepo(ingredients...)
	return NewStockService(repo, &fakeLotRepo{}, noopLocker{}), repo
}

func requirementFor(t *testing.T, ing *inventory.Ingredient, required int64) inventory.IngredientRequirement {
	t.Helper()
	return inventory.NewIngredientRequirement(ing, decimal.NewFromInt(required))
}

func TestStockService_ReserveForOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reserve then cancel leaves stock untouched", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		svc, _ := newStockService(flour)

		reqs := []inventory.IngredientRequirement{requirementFor(t, flour, 6)}
		require.NoError(t, svc.ReserveForOrder(ctx, reqs))
		assert.True(t, flour.ReservedStock.Equal(decimal.NewFromInt(6)))
		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(10)))

		require.NoError(t, svc.ReleaseForOrder(ctx, reqs))
		assert.True(t, flour.ReservedStock.IsZero())
		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(10)))
	})

	t.Run("whole batch fails when one ingredient is short", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		butter := newIngredientWithLot(t, "Mentega", 2)
		svc, _ := newStockService(flour, butter)

		err := svc.ReserveForOrder(ctx, []inventory.IngredientRequirement{
			requirementFor(t, flour, 6),
			requirementFor(t, butter, 5),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Mentega")
		// nothing was reserved, not even the sufficient ingredient
		assert.True(t, flour.ReservedStock.IsZero())
		assert.True(t, butter.ReservedStock.IsZero())
	})

	t.Run("availability is recomputed at write time", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		svc, _ := newStockService(flour)

		require.NoError(t, svc.ReserveForOrder(ctx, []inventory.IngredientRequirement{requirementFor(t, flour, 7)}))

		// the stale requirement still reports 10 available, the service must not
		stale := inventory.IngredientRequirement{
			IngredientID: flour.ID,
			Required:     decimal.NewFromInt(5),
			Available:    decimal.NewFromInt(10),
			IsSufficient: true,
		}
		err := svc.ReserveForOrder(ctx, []inventory.IngredientRequirement{stale})
		require.Error(t, err)
		assert.True(t, flour.ReservedStock.Equal(decimal.NewFromInt(7)))
	})

	t.Run("failed save mid-batch releases holds already persisted", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		butter := newIngredientWithLot(t, "Mentega", 10)
		svc, repo := newStockService(flour, butter)
		repo.saveErr = func(ing *inventory.Ingredient) error {
			if ing.Name == "Mentega" {
				return shared.ErrConcurrencyConflict
			}
			return nil
		}

		err := svc.ReserveForOrder(ctx, []inventory.IngredientRequirement{
			requirementFor(t, flour, 6),
			requirementFor(t, butter, 3),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		// the flour hold was persisted before butter failed; it must be gone
		assert.True(t, flour.ReservedStock.IsZero())
	})

	t.Run("double release never drives reserved below zero", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		svc, _ := newStockService(flour)

		reqs := []inventory.IngredientRequirement{requirementFor(t, flour, 4)}
		require.NoError(t, svc.ReserveForOrder(ctx, reqs))
		require.NoError(t, svc.ReleaseForOrder(ctx, reqs))
		require.NoError(t, svc.ReleaseForOrder(ctx, reqs))
		assert.True(t, flour.ReservedStock.IsZero())
	})
}

func TestStockService_ConvertReservationToDeduction(t *testing.T) {
	ctx := context.Background()

	t.Run("deducts FEFO and releases the reservation together", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		svc, _ := newStockService(flour)

		reqs := []inventory.IngredientRequirement{requirementFor(t, flour, 6)}
		require.NoError(t, svc.ReserveForOrder(ctx, reqs))

		usages, err := svc.ConvertReservationToDeduction(ctx, reqs)
		require.NoError(t, err)

		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(4)))
		assert.True(t, flour.ReservedStock.IsZero())
		require.Len(t, usages, 1)
		assert.True(t, usages[0].Quantity.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, "partially_used", usages[0].Status)
	})

	t.Run("walks lots oldest expiry first across a batch", func(t *testing.T) {
		flour, err := inventory.NewIngredient("Tepung Terigu", "kg")
		require.NoError(t, err)
		now := time.Now()
		_, err = flour.AddLot(decimal.NewFromInt(4), now.AddDate(0, 0, 2), now, "", decimal.Zero)
		require.NoError(t, err)
		_, err = flour.AddLot(decimal.NewFromInt(10), now.AddDate(0, 0, 8), now, "", decimal.Zero)
		require.NoError(t, err)
		svc, _ := newStockService(flour)

		usages, err := svc.DeductFEFO(ctx, []inventory.IngredientRequirement{requirementFor(t, flour, 7)})
		require.NoError(t, err)
		require.Len(t, usages, 2)
		assert.Equal(t, "fully_used", usages[0].Status)
		assert.True(t, usages[1].Quantity.Equal(decimal.NewFromInt(3)))
		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(7)))
	})

	t.Run("refuses the whole batch when one ingredient cannot be covered", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		butter := newIngredientWithLot(t, "Mentega", 1)
		svc, _ := newStockService(flour, butter)

		_, err := svc.DeductFEFO(ctx, []inventory.IngredientRequirement{
			requirementFor(t, flour, 6),
			requirementFor(t, butter, 3),
		})
		require.Error(t, err)
		// flour was not touched even though it alone was sufficient
		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(10)))
		assert.True(t, butter.CurrentStock.Equal(decimal.NewFromInt(1)))
	})

	t.Run("failed save mid-batch restores lots and holds already written", func(t *testing.T) {
		flour := newIngredientWithLot(t, "Tepung Terigu", 10)
		butter := newIngredientWithLot(t, "Mentega", 10)
		svc, repo := newStockService(flour, butter)

		reqs := []inventory.IngredientRequirement{
			requirementFor(t, flour, 2),
			requirementFor(t, butter, 2),
		}
		require.NoError(t, svc.ReserveForOrder(ctx, reqs))

		repo.saveErr = func(ing *inventory.Ingredient) error {
			if ing.Name == "Mentega" {
				return shared.ErrConcurrencyConflict
			}
			return nil
		}
		_, err := svc.ConvertReservationToDeduction(ctx, reqs)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		// flour had already been deducted and its hold released; both must
		// be back where the batch started
		assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(10)))
		assert.True(t, flour.Lots[0].CurrentStock.Equal(decimal.NewFromInt(10)))
		assert.True(t, flour.ReservedStock.Equal(decimal.NewFromInt(2)))
	})

	t.Run("expired lots never serve a deduction", func(t *testing.T) {
		flour, err := inventory.NewIngredient("Tepung Terigu", "kg")
		require.NoError(t, err)
		now := time.Now()
		_, err = flour.AddLot(decimal.NewFromInt(10), now.AddDate(0, 0, 3), now, "", decimal.Zero)
		require.NoError(t, err)
		flour.Lots[0].ExpiryDate = now.AddDate(0, 0, -1)
		svc, _ := newStockService(flour)

		_, err = svc.DeductFEFO(ctx, []inventory.IngredientRequirement{requirementFor(t, flour, 2)})
		require.Error(t, err)
	})
}

func TestStockService_Replenish(t *testing.T) {
	ctx := context.Background()

	flour := newIngredientWithLot(t, "Tepung Terigu", 4)
	svc, _ := newStockService(flour)

	response, err := svc.Replenish(ctx, ReplenishRequest{
		IngredientID: flour.ID,
		Quantity:     decimal.NewFromInt(25),
		ExpiryDate:   time.Now().AddDate(0, 0, 14),
		Supplier:     "CV Sumber Pangan",
	})
	require.NoError(t, err)

	assert.True(t, response.CurrentStock.Equal(decimal.NewFromInt(29)))
	require.Len(t, flour.Lots, 2)
	assert.True(t, flour.Lots[1].CurrentStock.Equal(decimal.NewFromInt(25)))
}

func TestStockService_RecommendedLots(t *testing.T) {
	ctx := context.Background()

	flour, err := inventory.NewIngredient("Tepung Terigu", "kg")
	require.NoError(t, err)
	now := time.Now()
	_, err = flour.AddLot(decimal.NewFromInt(5), now.AddDate(0, 0, 3), now, "", decimal.Zero)
	require.NoError(t, err)
	_, err = flour.AddLot(decimal.NewFromInt(10), now.AddDate(0, 0, 30), now, "", decimal.Zero)
	require.NoError(t, err)
	svc, _ := newStockService(flour)

	preview, err := svc.RecommendedLots(ctx, flour.ID, decimal.NewFromInt(8))
	require.NoError(t, err)
	require.Len(t, preview, 2)
	assert.True(t, preview[0].ExpiringSoon)
	assert.True(t, preview[1].UseQuantity.Equal(decimal.NewFromInt(3)))

	// preview must not mutate the ledger
	assert.True(t, flour.CurrentStock.Equal(decimal.NewFromInt(15)))
}

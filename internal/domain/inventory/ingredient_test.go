package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokoroti/backend/internal/domain/shared"
)

func newTestIngredient(t *testing.T) *Ingredient {
	t.Helper()
	ing, err := NewIngredient("Tepung Terigu", "kg")
	require.NoError(t, err)
	return ing
}

func addTestLot(t *testing.T, ing *Ingredient, qty int64, expiresInDays int) *IngredientLot {
	t.Helper()
	now := time.Now()
	lot, err := ing.AddLot(
		decimal.NewFromInt(qty),
		now.AddDate(0, 0, expiresInDays),
		now,
		"Supplier A",
		decimal.NewFromInt(10000),
	)
	require.NoError(t, err)
	return lot
}

// addExpiredTestLot registers a lot whose expiry already passed, the way a
// stale delivery looks after sitting unsold.
func addExpiredTestLot(t *testing.T, ing *Ingredient, qty int64) *IngredientLot {
	t.Helper()
	now := time.Now()
	lot, err := ing.AddLot(
		decimal.NewFromInt(qty),
		now.AddDate(0, 0, -10),
		now.AddDate(0, 0, -40),
		"Supplier A",
		decimal.NewFromInt(10000),
	)
	require.NoError(t, err)
	return lot
}

func TestNewIngredient(t *testing.T) {
	t.Run("creates ingredient with zero stock", func(t *testing.T) {
		ing := newTestIngredient(t)
		assert.True(t, ing.CurrentStock.IsZero())
		assert.True(t, ing.ReservedStock.IsZero())
		assert.Empty(t, ing.Lots)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewIngredient(" ", "kg")
		assert.Error(t, err)
	})

	t.Run("rejects empty unit", func(t *testing.T) {
		_, err := NewIngredient("Gula", "")
		assert.Error(t, err)
	})
}

func TestIngredient_Reserve(t *testing.T) {
	t.Run("reserves within available stock", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)

		err := ing.Reserve(decimal.NewFromInt(6))
		require.NoError(t, err)
		assert.True(t, ing.ReservedStock.Equal(decimal.NewFromInt(6)))
		assert.True(t, ing.Available().Equal(decimal.NewFromInt(4)))
	})

	t.Run("rejects reservation beyond available", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		require.NoError(t, ing.Reserve(decimal.NewFromInt(8)))

		err := ing.Reserve(decimal.NewFromInt(3))
		assert.Error(t, err)
		assert.True(t, ing.ReservedStock.Equal(decimal.NewFromInt(8)))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		ing := newTestIngredient(t)
		assert.Error(t, ing.Reserve(decimal.Zero))
	})

	t.Run("reserved stock never exceeds current stock", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		require.NoError(t, ing.Reserve(decimal.NewFromInt(10)))
		assert.Error(t, ing.Reserve(decimal.NewFromInt(1)))
		assert.True(t, ing.ReservedStock.LessThanOrEqual(ing.CurrentStock))
	})
}

func TestIngredient_ReleaseReservation(t *testing.T) {
	t.Run("releases held stock", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		require.NoError(t, ing.Reserve(decimal.NewFromInt(6)))

		ing.ReleaseReservation(decimal.NewFromInt(6))
		assert.True(t, ing.ReservedStock.IsZero())
		assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(10)))
	})

	t.Run("double release is floored at zero", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		require.NoError(t, ing.Reserve(decimal.NewFromInt(6)))

		ing.ReleaseReservation(decimal.NewFromInt(6))
		ing.ReleaseReservation(decimal.NewFromInt(6))
		assert.True(t, ing.ReservedStock.IsZero())
		assert.False(t, ing.ReservedStock.IsNegative())
	})

	t.Run("ignores non-positive quantity", func(t *testing.T) {
		ing := newTestIngredient(t)
		ing.ReleaseReservation(decimal.NewFromInt(-1))
		assert.True(t, ing.ReservedStock.IsZero())
	})
}

func TestIngredient_AddLot(t *testing.T) {
	t.Run("grows aggregate stock by lot quantity", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		addTestLot(t, ing, 4, 3)

		assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(14)))
		assert.Len(t, ing.Lots, 2)
	})

	t.Run("new lot starts with full remaining stock", func(t *testing.T) {
		ing := newTestIngredient(t)
		lot := addTestLot(t, ing, 10, 5)
		assert.True(t, lot.CurrentStock.Equal(lot.Quantity))
	})

	t.Run("rejects expiry before purchase date", func(t *testing.T) {
		ing := newTestIngredient(t)
		now := time.Now()
		_, err := ing.AddLot(decimal.NewFromInt(5), now.AddDate(0, 0, -1), now, "", decimal.Zero)
		assert.Error(t, err)
	})
}

func TestIngredient_SyncStockFromLots(t *testing.T) {
	t.Run("aggregate equals sum of lot stock after deduction", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		addTestLot(t, ing, 4, 8)

		ing.Lots[0].Deduct(decimal.NewFromInt(7))
		ing.SyncStockFromLots(time.Now())

		assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(7)))
	})

	t.Run("emits low stock event when below minimum", func(t *testing.T) {
		ing := newTestIngredient(t)
		addTestLot(t, ing, 10, 5)
		require.NoError(t, ing.SetMinimumStock(decimal.NewFromInt(5)))
		ing.ClearDomainEvents()

		ing.Lots[0].Deduct(decimal.NewFromInt(8))
		ing.SyncStockFromLots(time.Now())

		events := ing.GetDomainEvents()
		require.NotEmpty(t, events)
		assert.Equal(t, EventTypeStockBelowMinimum, events[len(events)-1].EventType())
	})
}

func TestIngredient_ExpiredLotStockNeverCounts(t *testing.T) {
	t.Run("aggregate and availability exclude expired lots", func(t *testing.T) {
		ing := newTestIngredient(t)
		addExpiredTestLot(t, ing, 10)
		addTestLot(t, ing, 4, 5)

		assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(4)),
			"expected 4, got %s", ing.CurrentStock)
		assert.True(t, ing.Available().Equal(decimal.NewFromInt(4)))
	})

	t.Run("reservation is capped at usable stock after a deduction", func(t *testing.T) {
		ing := newTestIngredient(t)
		addExpiredTestLot(t, ing, 10)
		addTestLot(t, ing, 4, 5)

		now := time.Now()
		selection := FindLotsToUse(ing.Lots, now)
		plan, err := PlanDeduction(selection, decimal.NewFromInt(2))
		require.NoError(t, err)
		require.NoError(t, ApplyDeductionPlan(ing, plan, now))

		assert.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(2)),
			"expected 2, got %s", ing.CurrentStock)
		assert.ErrorIs(t, ing.Reserve(decimal.NewFromInt(6)), shared.ErrInsufficientStock)
		require.NoError(t, ing.Reserve(decimal.NewFromInt(2)))
	})

	t.Run("resync drops stock that expired since the last write", func(t *testing.T) {
		ing := newTestIngredient(t)
		lot := addTestLot(t, ing, 10, 5)
		require.True(t, ing.CurrentStock.Equal(decimal.NewFromInt(10)))

		lot.ExpiryDate = time.Now().AddDate(0, 0, -1)
		ing.Lots[0].ExpiryDate = lot.ExpiryDate
		ing.SyncStockFromLots(time.Now())

		assert.True(t, ing.CurrentStock.IsZero())
		assert.True(t, ing.Available().IsZero())
	})
}

func TestIngredientLot_Deduct(t *testing.T) {
	ing := newTestIngredient(t)
	lot := addTestLot(t, ing, 10, 5)

	t.Run("deducts requested quantity", func(t *testing.T) {
		got := lot.Deduct(decimal.NewFromInt(4))
		assert.True(t, got.Equal(decimal.NewFromInt(4)))
		assert.True(t, lot.CurrentStock.Equal(decimal.NewFromInt(6)))
	})

	t.Run("caps deduction at remaining stock", func(t *testing.T) {
		got := lot.Deduct(decimal.NewFromInt(100))
		assert.True(t, got.Equal(decimal.NewFromInt(6)))
		assert.True(t, lot.IsDepleted())
	})

	t.Run("depleted lot is not usable", func(t *testing.T) {
		assert.False(t, lot.IsUsable(time.Now()))
	})
}

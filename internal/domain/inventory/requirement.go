package inventory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IngredientRequirement is the ephemeral stock posture of one ingredient for
// one order. It is computed fresh whenever an order's sufficiency must be
// evaluated and is never persisted.
type IngredientRequirement struct {
	IngredientID   uuid.UUID
	IngredientName string
	Unit           string
	Required       decimal.Decimal
	CurrentStock   decimal.Decimal
	ReservedStock  decimal.Decimal
	Available      decimal.Decimal
	IsSufficient   bool
	Shortage       decimal.Decimal
}

// NewIngredientRequirement evaluates the requirement against the
// ingredient's live stock posture.
func NewIngredientRequirement(ingredient *Ingredient, required decimal.Decimal) IngredientRequirement {
	available := ingredient.Available()
	shortage := decimal.Zero
	if required.GreaterThan(available) {
		shortage = required.Sub(available)
	}
	return IngredientRequirement{
		IngredientID:   ingredient.ID,
		IngredientName: ingredient.Name,
		Unit:           ingredient.Unit,
		Required:       required,
		CurrentStock:   ingredient.CurrentStock,
		ReservedStock:  ingredient.ReservedStock,
		Available:      available,
		IsSufficient:   available.GreaterThanOrEqual(required),
		Shortage:       shortage,
	}
}

// SortByShortage orders requirements by descending shortage so the worst
// constraint surfaces first in downstream messaging.
func SortByShortage(requirements []IngredientRequirement) {
	sort.SliceStable(requirements, func(i, j int) bool {
		return requirements[i].Shortage.GreaterThan(requirements[j].Shortage)
	})
}

// AllSufficient returns true when every requirement can be met
func AllSufficient(requirements []IngredientRequirement) bool {
	for _, r := range requirements {
		if !r.IsSufficient {
			return false
		}
	}
	return true
}

// Insufficient returns the requirements that cannot be met
func Insufficient(requirements []IngredientRequirement) []IngredientRequirement {
	out := make([]IngredientRequirement, 0)
	for _, r := range requirements {
		if !r.IsSufficient {
			out = append(out, r)
		}
	}
	return out
}

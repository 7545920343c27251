package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// IngredientRepository defines persistence operations for ingredients.
// Find methods load the ingredient together with its lots; Save persists the
// aggregate and its lots as one unit and must reject a stale Version with
// shared.ErrConcurrencyConflict.
type IngredientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Ingredient, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Ingredient, error)
	FindByName(ctx context.Context, name string) (*Ingredient, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Ingredient, error)
	FindBelowMinimum(ctx context.Context) ([]Ingredient, error)
	Save(ctx context.Context, ingredient *Ingredient) error
}

// IngredientLotRepository provides read-only lot queries used by reporting
type IngredientLotRepository interface {
	FindByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]IngredientLot, error)
	FindExpiringWithin(ctx context.Context, window time.Duration) ([]IngredientLot, error)
}

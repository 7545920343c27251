package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

type fakeIngredientRepo struct {
	mu          sync.Mutex
	ingredients map[uuid.UUID]*inventory.Ingredient
	// saveErr, when set, is consulted on every Save and lets a test fail
	// the write for a chosen ingredient
	saveErr func(*inventory.Ingredient) error
}

func newFakeIngredientRepo(ingredients ...*inventory.Ingredient) *fakeIngredientRepo {
	repo := &fakeIngredientRepo{ingredients: make(map[uuid.UUID]*inventory.Ingredient)}
	for _, ing := range ingredients {
		repo.ingredients[ing.ID] = ing
	}
	return repo
}

func (r *fakeIngredientRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ing, ok := r.ingredients[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ing, nil
}

func (r *fakeIngredientRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Ingredient, 0, len(ids))
	for _, id := range ids {
		if ing, ok := r.ingredients[id]; ok {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (r *fakeIngredientRepo) FindByName(_ context.Context, name string) (*inventory.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ing := range r.ingredients {
		if ing.Name == name {
			return ing, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeIngredientRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Ingredient, 0, len(r.ingredients))
	for _, ing := range r.ingredients {
		out = append(out, *ing)
	}
	return out, nil
}

func (r *fakeIngredientRepo) FindBelowMinimum(_ context.Context) ([]inventory.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Ingredient, 0)
	for _, ing := range r.ingredients {
		if ing.IsBelowMinimum() {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (r *fakeIngredientRepo) Save(_ context.Context, ingredient *inventory.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		if err := r.saveErr(ingredient); err != nil {
			return err
		}
	}
	r.ingredients[ingredient.ID] = ingredient
	return nil
}

type fakeLotRepo struct {
	lots []inventory.IngredientLot
}

func (r *fakeLotRepo) FindByIngredient(_ context.Context, ingredientID uuid.UUID) ([]inventory.IngredientLot, error) {
	out := make([]inventory.IngredientLot, 0)
	for _, lot := range r.lots {
		if lot.IngredientID == ingredientID {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindExpiringWithin(_ context.Context, window time.Duration) ([]inventory.IngredientLot, error) {
	deadline := time.Now().Add(window)
	out := make([]inventory.IngredientLot, 0)
	for _, lot := range r.lots {
		if lot.ExpiryDate.Before(deadline) && !lot.IsDepleted() {
			out = append(out, lot)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	products []catalog.Product
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	for idx := range r.products {
		if r.products[idx].ID == id {
			return &r.products[idx], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByName(_ context.Context, name string) (*catalog.Product, error) {
	if p := catalog.FindByExactName(r.products, name); p != nil {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAllActive(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	return r.products, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	for idx := range r.products {
		if r.products[idx].ID == product.ID {
			r.products[idx] = *product
			return nil
		}
	}
	r.products = append(r.products, *product)
	return nil
}

// noopLocker satisfies shared.KeyLocker for single-goroutine tests
type noopLocker struct{}

func (noopLocker) Lock(string)   {}
func (noopLocker) Unlock(string) {}

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/conversation"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/order"
	"github.com/tokoroti/backend/internal/domain/shared"
)

type fakeStateRepo struct {
	states map[string]*conversation.ConversationState
	saves  int
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*conversation.ConversationState)}
}

func (r *fakeStateRepo) FindByCustomer(_ context.Context, customerID string) (*conversation.ConversationState, error) {
	return r.states[customerID], nil
}

func (r *fakeStateRepo) Save(_ context.Context, state *conversation.ConversationState) error {
	r.states[state.CustomerID] = state
	r.saves++
	return nil
}

// scriptedExtractor pops one canned response per Analyze call
type scriptedExtractor struct {
	responses []*ExtractionResult
	errs      []error
	calls     int
}

func (e *scriptedExtractor) Analyze(_ context.Context, _ AnalyzeRequest) (*ExtractionResult, error) {
	idx := e.calls
	e.calls++
	if idx < len(e.errs) && e.errs[idx] != nil {
		return nil, e.errs[idx]
	}
	if idx < len(e.responses) && e.responses[idx] != nil {
		return e.responses[idx], nil
	}
	return nil, errors.New("no scripted response left")
}

type staticCatalog struct {
	products []catalog.Product
}

func (c *staticCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) {
	return c.products, nil
}

type recordingSender struct {
	sent []string
}

func (s *recordingSender) Send(_ context.Context, _, text string) error {
	s.sent = append(s.sent, text)
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) FindActiveByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	out := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.CustomerID == customerID && !o.Status.IsTerminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByStatus(_ context.Context, status order.Status) ([]order.Order, error) {
	out := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]order.Order, error) {
	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
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
	return r.products, nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	return r.products, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.products = append(r.products, *product)
	return nil
}

type fakeIngredientRepo struct {
	ingredients map[uuid.UUID]*inventory.Ingredient
}

func newFakeIngredientRepo(ingredients ...*inventory.Ingredient) *fakeIngredientRepo {
	repo := &fakeIngredientRepo{ingredients: make(map[uuid.UUID]*inventory.Ingredient)}
	for _, ing := range ingredients {
		repo.ingredients[ing.ID] = ing
	}
	return repo
}

func (r *fakeIngredientRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	ing, ok := r.ingredients[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ing, nil
}

func (r *fakeIngredientRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.Ingredient, error) {
	out := make([]inventory.Ingredient, 0, len(ids))
	for _, id := range ids {
		if ing, ok := r.ingredients[id]; ok {
			out = append(out, *ing)
		}
	}
	return out, nil
}

func (r *fakeIngredientRepo) FindByName(_ context.Context, name string) (*inventory.Ingredient, error) {
	for _, ing := range r.ingredients {
		if ing.Name == name {
			return ing, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeIngredientRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Ingredient, error) {
	out := make([]inventory.Ingredient, 0, len(r.ingredients))
	for _, ing := range r.ingredients {
		out = append(out, *ing)
	}
	return out, nil
}

func (r *fakeIngredientRepo) FindBelowMinimum(_ context.Context) ([]inventory.Ingredient, error) {
	return nil, nil
}

func (r *fakeIngredientRepo) Save(_ context.Context, ingredient *inventory.Ingredient) error {
	r.ingredients[ingredient.ID] = ingredient
	return nil
}

type fakeLotRepo struct{}

func (fakeLotRepo) FindByIngredient(_ context.Context, _ uuid.UUID) ([]inventory.IngredientLot, error) {
	return nil, nil
}

func (fakeLotRepo) FindExpiringWithin(_ context.Context, _ time.Duration) ([]inventory.IngredientLot, error) {
	return nil, nil
}

type noopLocker struct{}

func (noopLocker) Lock(string)   {}
func (noopLocker) Unlock(string) {}

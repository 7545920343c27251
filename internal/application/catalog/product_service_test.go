package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

type fakeProductRepo struct {
	byID   map[uuid.UUID]*catalog.Product
	byName map[string]*catalog.Product
	saved  []*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		byID:   make(map[uuid.UUID]*catalog.Product),
		byName: make(map[string]*catalog.Product),
	}
}

func (r *fakeProductRepo) add(p *catalog.Product) {
	r.byID[p.ID] = p
	r.byName[p.Name] = p
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByName(_ context.Context, name string) (*catalog.Product, error) {
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAllActive(context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(r.byID))
	for _, p := range r.byID {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindAll(context.Context, shared.Filter) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.add(p)
	r.saved = append(r.saved, p)
	return nil
}

type fakeIngredientLookup struct {
	known map[uuid.UUID]inventory.Ingredient
}

func (r *fakeIngredientLookup) FindByID(_ context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	if ing, ok := r.known[id]; ok {
		return &ing, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeIngredientLookup) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.Ingredient, error) {
	out := make([]inventory.Ingredient, 0, len(ids))
	for _, id := range ids {
		if ing, ok := r.known[id]; ok {
			out = append(out, ing)
		}
	}
	return out, nil
}

func (r *fakeIngredientLookup) FindByName(context.Context, string) (*inventory.Ingredient, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeIngredientLookup) FindAll(context.Context, shared.Filter) ([]inventory.Ingredient, error) {
	return nil, nil
}

func (r *fakeIngredientLookup) FindBelowMinimum(context.Context) ([]inventory.Ingredient, error) {
	return nil, nil
}

func (r *fakeIngredientLookup) Save(context.Context, *inventory.Ingredient) error {
	return nil
}

type countingInvalidator struct {
	calls int
}

func (i *countingInvalidator) Invalidate(context.Context) error {
	i.calls++
	return nil
}

func newIngredient(t *testing.T, name string) *inventory.Ingredient {
	t.Helper()
	ing, err := inventory.NewIngredient(name, "gram")
	require.NoError(t, err)
	return ing
}

func TestProductService_Create(t *testing.T) {
	flour := newIngredient(t, "Tepung Terigu")
	repo := newFakeProductRepo()
	ingredients := &fakeIngredientLookup{known: map[uuid.UUID]inventory.Ingredient{flour.ID: *flour}}
	invalidator := &countingInvalidator{}
	service := NewProductService(repo, ingredients, invalidator, zap.NewNop())

	resp, err := service.Create(context.Background(), CreateProductRequest{
		Name:  "Roti Tawar",
		Price: decimal.NewFromInt(12000),
		Recipe: []RecipeItemRequest{
			{IngredientID: flour.ID, QtyPerUnit: decimal.NewFromInt(250), Unit: "gram"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Roti Tawar", resp.Name)
	assert.True(t, resp.Active)
	require.Len(t, resp.Recipe, 1)
	assert.Equal(t, flour.ID, resp.Recipe[0].IngredientID)
	assert.Equal(t, 1, invalidator.calls)
	require.Len(t, repo.saved, 1)
}

func TestProductService_Create_DuplicateName(t *testing.T) {
	existing, err := catalog.NewProduct("Roti Tawar", decimal.NewFromInt(12000))
	require.NoError(t, err)
	repo := newFakeProductRepo()
	repo.add(existing)
	service := NewProductService(repo, &fakeIngredientLookup{}, nil, zap.NewNop())

	_, err = service.Create(context.Background(), CreateProductRequest{
		Name:  "Roti Tawar",
		Price: decimal.NewFromInt(15000),
	})

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestProductService_Create_UnknownRecipeIngredient(t *testing.T) {
	repo := newFakeProductRepo()
	service := NewProductService(repo, &fakeIngredientLookup{known: map[uuid.UUID]inventory.Ingredient{}}, nil, zap.NewNop())

	_, err := service.Create(context.Background(), CreateProductRequest{
		Name:  "Croissant",
		Price: decimal.NewFromInt(18000),
		Recipe: []RecipeItemRequest{
			{IngredientID: uuid.New(), QtyPerUnit: decimal.NewFromInt(100), Unit: "gram"},
		},
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INGREDIENT", domainErr.Code)
	assert.Empty(t, repo.saved)
}

func TestProductService_Update(t *testing.T) {
	product, err := catalog.NewProduct("Donat Coklat", decimal.NewFromInt(8000))
	require.NoError(t, err)
	repo := newFakeProductRepo()
	repo.add(product)
	invalidator := &countingInvalidator{}
	service := NewProductService(repo, &fakeIngredientLookup{}, invalidator, zap.NewNop())

	newPrice := decimal.NewFromInt(9000)
	inactive := false
	resp, err := service.Update(context.Background(), product.ID, UpdateProductRequest{
		Price:  &newPrice,
		Active: &inactive,
	})

	require.NoError(t, err)
	assert.True(t, resp.Price.Equal(newPrice))
	assert.False(t, resp.Active)
	assert.Equal(t, 1, invalidator.calls)
	assert.WithinDuration(t, time.Now(), resp.UpdatedAt, time.Minute)
}

func TestProductService_Update_NotFound(t *testing.T) {
	service := NewProductService(newFakeProductRepo(), &fakeIngredientLookup{}, nil, zap.NewNop())

	_, err := service.Update(context.Background(), uuid.New(), UpdateProductRequest{})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductService_GetAndList(t *testing.T) {
	product, err := catalog.NewProduct("Bolu Pandan", decimal.NewFromInt(25000))
	require.NoError(t, err)
	repo := newFakeProductRepo()
	repo.add(product)
	service := NewProductService(repo, &fakeIngredientLookup{}, nil, zap.NewNop())

	got, err := service.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolu Pandan", got.Name)

	list, err := service.List(context.Background(), shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

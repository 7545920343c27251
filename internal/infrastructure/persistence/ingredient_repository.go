package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// GormIngredientRepository implements inventory.IngredientRepository using
// GORM. Find methods load the ingredient together with its lots in FEFO
// order; Save persists the aggregate and its lots as one transaction and
// rejects stale versions with shared.ErrConcurrencyConflict.
type GormIngredientRepository struct {
	db *gorm.DB
}

// NewGormIngredientRepository creates a new GormIngredientRepository
func NewGormIngredientRepository(db *gorm.DB) *GormIngredientRepository {
	return &GormIngredientRepository{db: db}
}

// lotOrder keeps lots in first-expired-first-out order on every load
func lotOrder(db *gorm.DB) *gorm.DB {
	return db.Order("expiry_date ASC, purchase_date ASC, created_at ASC")
}

// FindByID finds an ingredient by its ID, lots included
func (r *GormIngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	var ingredient inventory.Ingredient
	if err := r.db.WithContext(ctx).
		Preload("Lots", lotOrder).
		First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}

// FindByIDs finds multiple ingredients by their IDs
func (r *GormIngredientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Ingredient, error) {
	if len(ids) == 0 {
		return []inventory.Ingredient{}, nil
	}

	var ingredients []inventory.Ingredient
	if err := r.db.WithContext(ctx).
		Preload("Lots", lotOrder).
		Where("id IN ?", ids).
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// FindByName finds an ingredient by exact name, case-insensitive
func (r *GormIngredientRepository) FindByName(ctx context.Context, name string) (*inventory.Ingredient, error) {
	var ingredient inventory.Ingredient
	if err := r.db.WithContext(ctx).
		Preload("Lots", lotOrder).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}

// FindAll returns ingredients matching the filter
func (r *GormIngredientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Ingredient, error) {
	var ingredients []inventory.Ingredient
	query := r.db.WithContext(ctx).Model(&inventory.Ingredient{}).Preload("Lots", lotOrder)

	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	query = applyOrdering(query, filter, "name ASC")
	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// FindBelowMinimum returns ingredients whose current stock is at or below
// their configured minimum
func (r *GormIngredientRepository) FindBelowMinimum(ctx context.Context) ([]inventory.Ingredient, error) {
	var ingredients []inventory.Ingredient
	if err := r.db.WithContext(ctx).
		Preload("Lots", lotOrder).
		Where("current_stock <= minimum_stock").
		Order("name ASC").
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// Save persists the ingredient and its lots as one unit. Lots removed from
// the aggregate are deleted; the version check guards concurrent writers.
func (r *GormIngredientRepository) Save(ctx context.Context, ingredient *inventory.Ingredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveAggregateRow(tx, ingredient); err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(ingredient.Lots))
		for idx := range ingredient.Lots {
			lot := &ingredient.Lots[idx]
			lot.IngredientID = ingredient.ID
			if err := tx.Save(lot).Error; err != nil {
				return err
			}
			keep = append(keep, lot.ID)
		}
		return deleteOrphanChildren(tx, &inventory.IngredientLot{}, "ingredient_id", ingredient.ID, keep)
	})
}

// Ensure GormIngredientRepository implements IngredientRepository
var _ inventory.IngredientRepository = (*GormIngredientRepository)(nil)

// GormIngredientLotRepository implements the read-only lot queries used by
// reporting
type GormIngredientLotRepository struct {
	db *gorm.DB
}

// NewGormIngredientLotRepository creates a new GormIngredientLotRepository
func NewGormIngredientLotRepository(db *gorm.DB) *GormIngredientLotRepository {
	return &GormIngredientLotRepository{db: db}
}

// FindByIngredient returns the ingredient's lots in FEFO order
func (r *GormIngredientLotRepository) FindByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]inventory.IngredientLot, error) {
	var lots []inventory.IngredientLot
	if err := lotOrder(r.db.WithContext(ctx)).
		Where("ingredient_id = ?", ingredientID).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiringWithin returns non-depleted lots expiring inside the window,
// soonest first
func (r *GormIngredientLotRepository) FindExpiringWithin(ctx context.Context, window time.Duration) ([]inventory.IngredientLot, error) {
	now := time.Now()
	var lots []inventory.IngredientLot
	if err := r.db.WithContext(ctx).
		Where("expiry_date > ? AND expiry_date <= ? AND current_stock > 0", now, now.Add(window)).
		Order("expiry_date ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Ensure GormIngredientLotRepository implements IngredientLotRepository
var _ inventory.IngredientLotRepository = (*GormIngredientLotRepository)(nil)

package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// RecipeItem describes how much of one ingredient a single unit of a
// product consumes.
type RecipeItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	QtyPerUnit   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit         string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (RecipeItem) TableName() string {
	return "recipe_items"
}

// Product is a sellable bakery item with its ingredient recipe.
// The recipe drives ingredient requirement explosion for orders.
type Product struct {
	shared.BaseAggregateRoot
	Name        string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Active      bool            `gorm:"not null;default:true"`

	Recipe []RecipeItem `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Price:             price,
		Active:            true,
		Recipe:            make([]RecipeItem, 0),
	}, nil
}

// SetPrice updates the product price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// AddRecipeItem adds an ingredient requirement to the product recipe
func (p *Product) AddRecipeItem(ingredientID uuid.UUID, qtyPerUnit decimal.Decimal, unit string) error {
	if ingredientID == uuid.Nil {
		return shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
	}
	if qtyPerUnit.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Recipe quantity must be positive")
	}

	p.Recipe = append(p.Recipe, RecipeItem{
		ID:           uuid.New(),
		ProductID:    p.ID,
		IngredientID: ingredientID,
		QtyPerUnit:   qtyPerUnit,
		Unit:         unit,
	})
	p.UpdatedAt = time.Now()
	return nil
}

// SetDescription updates the product description
func (p *Product) SetDescription(description string) {
	p.Description = strings.TrimSpace(description)
	p.UpdatedAt = time.Now()
}

// SetActive toggles whether the product is offered in the catalog
func (p *Product) SetActive(active bool) {
	p.Active = active
	p.UpdatedAt = time.Now()
}

// ReplaceRecipe swaps the whole recipe for a new one
func (p *Product) ReplaceRecipe(items []RecipeItem) error {
	replacement := make([]RecipeItem, 0, len(items))
	for _, item := range items {
		if item.IngredientID == uuid.Nil {
			return shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
		}
		if item.QtyPerUnit.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_QUANTITY", "Recipe quantity must be positive")
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.ProductID = p.ID
		replacement = append(replacement, item)
	}
	p.Recipe = replacement
	p.UpdatedAt = time.Now()
	return nil
}

// HasRecipe returns true if the product has at least one recipe item
func (p *Product) HasRecipe() bool {
	return len(p.Recipe) > 0
}

// MatchesName reports whether the given name matches the product name,
// ignoring case and surrounding whitespace.
func (p *Product) MatchesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), p.Name)
}

// FindByExactName returns the product whose name equals the given name
// (case-insensitive), or nil when none matches.
func FindByExactName(products []Product, name string) *Product {
	for i := range products {
		if products[i].MatchesName(name) {
			return &products[i]
		}
	}
	return nil
}

package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// IngredientLot is a discrete delivery batch of an ingredient with its own
// expiry date and remaining quantity. A lot is created on replenishment with
// CurrentStock equal to Quantity, is decremented by FEFO deduction, and is
// never resurrected; a depleted lot stays on record for audit.
type IngredientLot struct {
	shared.BaseEntity
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Original delivered quantity
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Remaining quantity
	ExpiryDate   time.Time       `gorm:"not null;index"`
	PurchaseDate time.Time       `gorm:"not null"`
	Supplier     string          `gorm:"type:varchar(100)"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (IngredientLot) TableName() string {
	return "ingredient_lots"
}

// NewIngredientLot creates a new lot with full remaining stock
func NewIngredientLot(
	ingredientID uuid.UUID,
	quantity decimal.Decimal,
	expiryDate, purchaseDate time.Time,
	supplier string,
	unitCost decimal.Decimal,
) (*IngredientLot, error) {
	if ingredientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if expiryDate.Before(purchaseDate) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry date cannot precede purchase date")
	}

	return &IngredientLot{
		BaseEntity:   shared.NewBaseEntity(),
		IngredientID: ingredientID,
		Quantity:     quantity,
		CurrentStock: quantity,
		ExpiryDate:   expiryDate,
		PurchaseDate: purchaseDate,
		Supplier:     supplier,
		UnitCost:     unitCost,
	}, nil
}

// IsExpired returns true if the lot expiry date has passed
func (l *IngredientLot) IsExpired(now time.Time) bool {
	return l.ExpiryDate.Before(now)
}

// ExpiresWithin returns true if the lot will expire within the given duration
func (l *IngredientLot) ExpiresWithin(now time.Time, window time.Duration) bool {
	return l.ExpiryDate.Before(now.Add(window))
}

// DaysUntilExpiry returns the number of whole days until expiry
func (l *IngredientLot) DaysUntilExpiry(now time.Time) int {
	return int(l.ExpiryDate.Sub(now).Hours() / 24)
}

// IsDepleted returns true once the lot has no remaining stock
func (l *IngredientLot) IsDepleted() bool {
	return l.CurrentStock.LessThanOrEqual(decimal.Zero)
}

// IsUsable returns true if the lot can serve a deduction: it still holds
// stock and has not expired.
func (l *IngredientLot) IsUsable(now time.Time) bool {
	return !l.IsDepleted() && !l.IsExpired(now)
}

// Deduct removes up to the requested quantity from the lot and returns the
// quantity actually removed.
func (l *IngredientLot) Deduct(quantity decimal.Decimal) decimal.Decimal {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	deducted := decimal.Min(quantity, l.CurrentStock)
	l.CurrentStock = l.CurrentStock.Sub(deducted)
	l.Touch()
	return deducted
}

// Restore returns stock taken by a deduction whose batch was rolled back
// before committing. Not a resurrection: the batch never happened.
func (l *IngredientLot) Restore(quantity decimal.Decimal) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return
	}
	l.CurrentStock = l.CurrentStock.Add(quantity)
	l.Touch()
}

// TotalValue returns the value of the remaining stock in the lot
func (l *IngredientLot) TotalValue() decimal.Decimal {
	return l.CurrentStock.Mul(l.UnitCost)
}

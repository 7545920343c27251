package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// Ingredient is the aggregate root for perishable stock of one raw material.
// CurrentStock mirrors the sum of CurrentStock over the ingredient's lots
// after every ledger write; ReservedStock is the soft hold for accepted but
// not yet fulfilled orders.
type Ingredient struct {
	shared.BaseAggregateRoot
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	CurrentStock  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinimumStock  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Lots []IngredientLot `gorm:"foreignKey:IngredientID;references:ID"`
}

// TableName returns the table name for GORM
func (Ingredient) TableName() string {
	return "ingredients"
}

// NewIngredient creates a new ingredient with empty stock
func NewIngredient(name, unit string) (*Ingredient, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Ingredient name cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Ingredient unit cannot be empty")
	}

	return &Ingredient{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Unit:              strings.TrimSpace(unit),
		CurrentStock:      decimal.Zero,
		ReservedStock:     decimal.Zero,
		MinimumStock:      decimal.Zero,
		Lots:              make([]IngredientLot, 0),
	}, nil
}

// UsableStock returns the stock that can actually serve a deduction at the
// given time: the sum of remaining stock over non-expired lots. Expired lots
// still holding stock are audit records, never sellable.
func (i *Ingredient) UsableStock(now time.Time) decimal.Decimal {
	total := decimal.Zero
	for idx := range i.Lots {
		if !i.Lots[idx].IsExpired(now) {
			total = total.Add(i.Lots[idx].CurrentStock)
		}
	}
	return total
}

// Available returns the quantity free for new commitments: usable stock
// minus the standing reservation.
func (i *Ingredient) Available() decimal.Decimal {
	return i.AvailableAt(time.Now())
}

// AvailableAt is Available evaluated against an explicit clock
func (i *Ingredient) AvailableAt(now time.Time) decimal.Decimal {
	return i.UsableStock(now).Sub(i.ReservedStock)
}

// Reserve places a soft hold on stock for an accepted order.
// Availability is recomputed at call time, never from a stale read.
func (i *Ingredient) Reserve(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if i.Available().LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	i.ReservedStock = i.ReservedStock.Add(quantity)
	i.Touch()
	i.AddDomainEvent(NewStockReservedEvent(i, quantity))
	return nil
}

// ReleaseReservation removes a soft hold, floored at zero so a double
// release is harmless.
func (i *Ingredient) ReleaseReservation(quantity decimal.Decimal) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return
	}
	released := decimal.Min(quantity, i.ReservedStock)
	i.ReservedStock = i.ReservedStock.Sub(released)
	i.Touch()
	i.AddDomainEvent(NewReservationReleasedEvent(i, released))
}

// AddLot registers a replenishment delivery as a new lot and resynchronizes
// the aggregate stock from the lots.
func (i *Ingredient) AddLot(
	quantity decimal.Decimal,
	expiryDate, purchaseDate time.Time,
	supplier string,
	unitCost decimal.Decimal,
) (*IngredientLot, error) {
	lot, err := NewIngredientLot(i.ID, quantity, expiryDate, purchaseDate, supplier, unitCost)
	if err != nil {
		return nil, err
	}

	i.Lots = append(i.Lots, *lot)
	i.SyncStockFromLots(time.Now())
	i.AddDomainEvent(NewStockReplenishedEvent(i, lot))
	return lot, nil
}

// SyncStockFromLots resynchronizes the aggregate CurrentStock with the sum
// of remaining stock over non-expired lots. Must be called after every lot
// write; stock sitting in an expired lot never counts.
func (i *Ingredient) SyncStockFromLots(now time.Time) {
	i.CurrentStock = i.UsableStock(now)
	i.Touch()

	if i.IsBelowMinimum() {
		i.AddDomainEvent(NewStockBelowMinimumEvent(i))
	}
}

// IsBelowMinimum returns true when current stock is under the alert threshold
func (i *Ingredient) IsBelowMinimum() bool {
	return i.MinimumStock.GreaterThan(decimal.Zero) && i.CurrentStock.LessThan(i.MinimumStock)
}

// SetMinimumStock sets the low stock alert threshold
func (i *Ingredient) SetMinimumStock(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}
	i.MinimumStock = quantity
	i.Touch()
	return nil
}

// UsableLots returns the lots that can serve a deduction right now
func (i *Ingredient) UsableLots(now time.Time) []IngredientLot {
	usable := make([]IngredientLot, 0, len(i.Lots))
	for _, lot := range i.Lots {
		if lot.IsUsable(now) {
			usable = append(usable, lot)
		}
	}
	return usable
}

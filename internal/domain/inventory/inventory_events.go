package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// Event type constants for the inventory domain
const (
	EventTypeStockReplenished    = "inventory.stock_replenished"
	EventTypeStockReserved       = "inventory.stock_reserved"
	EventTypeReservationReleased = "inventory.reservation_released"
	EventTypeStockDeducted       = "inventory.stock_deducted"
	EventTypeStockBelowMinimum   = "inventory.stock_below_minimum"
)

const aggregateTypeIngredient = "Ingredient"

// StockReplenishedEvent is emitted when a new lot is registered
type StockReplenishedEvent struct {
	shared.BaseDomainEvent
	IngredientName string          `json:"ingredient_name"`
	LotID          uuid.UUID       `json:"lot_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
}

// NewStockReplenishedEvent creates a StockReplenishedEvent
func NewStockReplenishedEvent(ingredient *Ingredient, lot *IngredientLot) *StockReplenishedEvent {
	return &StockReplenishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReplenished, aggregateTypeIngredient, ingredient.ID),
		IngredientName:  ingredient.Name,
		LotID:           lot.ID,
		Quantity:        lot.Quantity,
		CurrentStock:    ingredient.CurrentStock,
	}
}

// StockReservedEvent is emitted when reserved stock is increased
type StockReservedEvent struct {
	shared.BaseDomainEvent
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReservedStock  decimal.Decimal `json:"reserved_stock"`
}

// NewStockReservedEvent creates a StockReservedEvent
func NewStockReservedEvent(ingredient *Ingredient, quantity decimal.Decimal) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, aggregateTypeIngredient, ingredient.ID),
		IngredientName:  ingredient.Name,
		Quantity:        quantity,
		ReservedStock:   ingredient.ReservedStock,
	}
}

// ReservationReleasedEvent is emitted when a soft hold is released
type ReservationReleasedEvent struct {
	shared.BaseDomainEvent
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReservedStock  decimal.Decimal `json:"reserved_stock"`
}

// NewReservationReleasedEvent creates a ReservationReleasedEvent
func NewReservationReleasedEvent(ingredient *Ingredient, quantity decimal.Decimal) *ReservationReleasedEvent {
	return &ReservationReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationReleased, aggregateTypeIngredient, ingredient.ID),
		IngredientName:  ingredient.Name,
		Quantity:        quantity,
		ReservedStock:   ingredient.ReservedStock,
	}
}

// StockDeductedEvent is emitted when a FEFO deduction is applied to lots
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	IngredientName string          `json:"ingredient_name"`
	TotalDeducted  decimal.Decimal `json:"total_deducted"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	LotUsages      []LotUsage      `json:"lot_usages"`
}

// NewStockDeductedEvent creates a StockDeductedEvent
func NewStockDeductedEvent(ingredient *Ingredient, plan *DeductionPlan) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, aggregateTypeIngredient, ingredient.ID),
		IngredientName:  ingredient.Name,
		TotalDeducted:   plan.TotalDeducted,
		CurrentStock:    ingredient.CurrentStock,
		LotUsages:       plan.Usages,
	}
}

// StockBelowMinimumEvent is emitted when stock drops under the threshold
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	IngredientName string          `json:"ingredient_name"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	MinimumStock   decimal.Decimal `json:"minimum_stock"`
}

// NewStockBelowMinimumEvent creates a StockBelowMinimumEvent
func NewStockBelowMinimumEvent(ingredient *Ingredient) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, aggregateTypeIngredient, ingredient.ID),
		IngredientName:  ingredient.Name,
		CurrentStock:    ingredient.CurrentStock,
		MinimumStock:    ingredient.MinimumStock,
	}
}

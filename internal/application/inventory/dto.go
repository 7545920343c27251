package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokoroti/backend/internal/domain/inventory"
)

// OrderedItem is one (product name, quantity) pair taken from an order or a
// draft, the input unit of requirement calculation.
type OrderedItem struct {
	Name     string
	Quantity int
}

// RequirementReport is the result of exploding ordered items into ingredient
// requirements. Warnings carry catalog mismatches that were skipped rather
// than failed.
type RequirementReport struct {
	Requirements []inventory.IngredientRequirement
	Warnings     []string
}

// AllSufficient reports whether every requirement can be met
func (r *RequirementReport) AllSufficient() bool {
	return inventory.AllSufficient(r.Requirements)
}

// Insufficient returns the requirements that cannot be met
func (r *RequirementReport) Insufficient() []inventory.IngredientRequirement {
	return inventory.Insufficient(r.Requirements)
}

// LotUsageReport records one lot-level deduction performed for an order
type LotUsageReport struct {
	IngredientID   uuid.UUID       `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	LotID          uuid.UUID       `json:"lot_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Status         string          `json:"status"`
	ExpiryDate     time.Time       `json:"expiry_date"`
}

// CreateIngredientRequest registers a new raw material
type CreateIngredientRequest struct {
	Name         string          `json:"name" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

// ReplenishRequest registers a new delivery lot for an ingredient
type ReplenishRequest struct {
	IngredientID uuid.UUID       `json:"ingredient_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	ExpiryDate   time.Time       `json:"expiry_date" binding:"required"`
	PurchaseDate *time.Time      `json:"purchase_date"`
	Supplier     string          `json:"supplier"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// IngredientResponse represents an ingredient in API responses
type IngredientResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	ReservedStock  decimal.Decimal `json:"reserved_stock"`
	Available      decimal.Decimal `json:"available"`
	MinimumStock   decimal.Decimal `json:"minimum_stock"`
	IsBelowMinimum bool            `json:"is_below_minimum"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID           uuid.UUID       `json:"id"`
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Supplier     string          `json:"supplier,omitempty"`
	Depleted     bool            `json:"depleted"`
}

// RecommendedLotResponse is one entry of the read-only FEFO preview
type RecommendedLotResponse struct {
	LotID        uuid.UUID       `json:"lot_id"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	UseQuantity  decimal.Decimal `json:"use_quantity"`
	ExpiringSoon bool            `json:"expiring_soon"`
}

// ToIngredientResponse converts a domain ingredient to its API shape
func ToIngredientResponse(ing *inventory.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:             ing.ID,
		Name:           ing.Name,
		Unit:           ing.Unit,
		CurrentStock:   ing.CurrentStock,
		ReservedStock:  ing.ReservedStock,
		Available:      ing.Available(),
		MinimumStock:   ing.MinimumStock,
		IsBelowMinimum: ing.IsBelowMinimum(),
		UpdatedAt:      ing.UpdatedAt,
	}
}

// ToLotResponse converts a domain lot to its API shape
func ToLotResponse(lot inventory.IngredientLot) LotResponse {
	return LotResponse{
		ID:           lot.ID,
		IngredientID: lot.IngredientID,
		Quantity:     lot.Quantity,
		CurrentStock: lot.CurrentStock,
		ExpiryDate:   lot.ExpiryDate,
		PurchaseDate: lot.PurchaseDate,
		Supplier:     lot.Supplier,
		Depleted:     lot.IsDepleted(),
	}
}

package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/tokoroti/backend/internal/application/inventory"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/order"
)

// RequestedItem is one (product name, quantity) pair from a confirmed draft
type RequestedItem struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest carries a completed draft into order creation
type CreateOrderRequest struct {
	CustomerID      string          `json:"customer_id" binding:"required"`
	CustomerName    string          `json:"customer_name"`
	Items           []RequestedItem `json:"items" binding:"required,min=1"`
	FulfillmentType string          `json:"fulfillment_type" binding:"required,oneof=pickup delivery"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	DeliveryAddress string          `json:"delivery_address"`
	PickupTime      string          `json:"pickup_time"`
}

// EditOrderRequest describes a confirmed edit: items to set or overwrite,
// items to remove, and optional new delivery details.
type EditOrderRequest struct {
	Items           []RequestedItem `json:"items"`
	RemoveItems     []string        `json:"remove_items"`
	FulfillmentType string          `json:"fulfillment_type"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	DeliveryAddress string          `json:"delivery_address"`
	PickupTime      string          `json:"pickup_time"`
}

// HasDeliveryChanges reports whether the edit touches delivery details
func (r EditOrderRequest) HasDeliveryChanges() bool {
	return r.FulfillmentType != "" || r.DeliveryDate != nil ||
		r.DeliveryAddress != "" || r.PickupTime != ""
}

// ItemResponse represents an order line item in API responses
type ItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	Status          string          `json:"status"`
	FulfillmentType string          `json:"fulfillment_type"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	PickupTime      string          `json:"pickup_time,omitempty"`
	Items           []ItemResponse  `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateOrderResult is the outcome of order creation including its stock
// posture: a sufficient order is reserved, an insufficient one is Pending
// with the shortages listed worst first.
type CreateOrderResult struct {
	Order     OrderResponse                     `json:"order"`
	Reserved  bool                              `json:"reserved"`
	Shortages []inventory.IngredientRequirement `json:"shortages,omitempty"`
	Warnings  []string                          `json:"warnings,omitempty"`
}

// EditProposal is the in-memory preview of a confirmed edit. Nothing is
// persisted until the customer approves it.
type EditProposal struct {
	OrderID  uuid.UUID       `json:"order_id"`
	Items    []ItemResponse  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Warnings []string        `json:"warnings,omitempty"`
}

// StatusUpdateRequest asks for an order status transition
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// ToOrderResponse converts a domain order to its API shape
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount(),
		})
	}
	return OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		Status:          o.Status.String(),
		FulfillmentType: string(o.FulfillmentType),
		DeliveryDate:    o.DeliveryDate,
		DeliveryAddress: o.DeliveryAddress,
		PickupTime:      o.PickupTime,
		Items:           items,
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderedItems(items []order.Item) []appinventory.OrderedItem {
	out := make([]appinventory.OrderedItem, 0, len(items))
	for _, item := range items {
		out = append(out, appinventory.OrderedItem{Name: item.ProductName, Quantity: item.Quantity})
	}
	return out
}

func toLotUsageRecords(usages []appinventory.LotUsageReport) []order.LotUsageRecord {
	records := make([]order.LotUsageRecord, 0, len(usages))
	for _, usage := range usages {
		records = append(records, order.LotUsageRecord{
			IngredientID: usage.IngredientID,
			LotID:        usage.LotID,
			Quantity:     usage.Quantity,
			Status:       usage.Status,
		})
	}
	return records
}

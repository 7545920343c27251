package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// TaxRate is the fixed tax rate applied to every order subtotal
var TaxRate = decimal.NewFromFloat(0.10)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusNewOrder  Status = "New Order"
	StatusPending   Status = "Pending"
	StatusOnProcess Status = "On Process"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// IsValid checks if the status is a valid order status
func (s Status) IsValid() bool {
	switch s {
	case StatusNewOrder, StatusPending, StatusOnProcess, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Pending is entered when insufficient stock prevents immediate acceptance
// and leaves either to New Order (after restock) or Cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusNewOrder || target == StatusCancelled
	case StatusNewOrder:
		return target == StatusOnProcess || target == StatusCancelled
	case StatusOnProcess:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states an order can never leave
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// FulfillmentType is how the customer receives the order
type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

// IsValid checks if the fulfillment type is valid
func (f FulfillmentType) IsValid() bool {
	return f == FulfillmentPickup || f == FulfillmentDelivery
}

// Item is a line item on an order. Product identity is resolved against the
// catalog at confirmation time and never re-resolved later.
type Item struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(100);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// Amount returns quantity times unit price
func (it Item) Amount() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// LotUsageRecord is the persisted trace of a FEFO deduction performed when
// the order entered On Process, kept for bake sheet and waste reporting.
type LotUsageRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null"`
	LotID        uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status       string          `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM
func (LotUsageRecord) TableName() string {
	return "order_lot_usages"
}

// Order is the aggregate root for a customer order placed through chat.
// Totals are derived and recomputed on every item mutation; stock side
// effects are paired with status transitions by the application service.
type Order struct {
	shared.BaseAggregateRoot
	CustomerID      string          `gorm:"type:varchar(100);not null;index"`
	CustomerName    string          `gorm:"type:varchar(100)"`
	Status          Status          `gorm:"type:varchar(20);not null;index"`
	FulfillmentType FulfillmentType `gorm:"type:varchar(20);not null"`
	DeliveryDate    *time.Time
	DeliveryAddress string          `gorm:"type:text"`
	PickupTime      string          `gorm:"type:varchar(50)"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Tax             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CancelReason    string          `gorm:"type:text"`

	Items     []Item           `gorm:"foreignKey:OrderID;references:ID"`
	LotUsages []LotUsageRecord `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in New Order status for a chat customer
func NewOrder(customerID, customerName string) (*Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		CustomerName:      customerName,
		Status:            StatusNewOrder,
		Subtotal:          decimal.Zero,
		Tax:               decimal.Zero,
		Total:             decimal.Zero,
		Items:             make([]Item, 0),
		LotUsages:         make([]LotUsageRecord, 0),
	}, nil
}

// SetItem adds a line item or overwrites the quantity of an existing one.
// Items are merged by case-insensitive product name: quantities overwrite,
// they never add up, so a product restated in an edit replaces itself.
func (o *Order) SetItem(productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if strings.TrimSpace(productName) == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	for idx := range o.Items {
		if strings.EqualFold(o.Items[idx].ProductName, productName) {
			o.Items[idx].Quantity = quantity
			o.Items[idx].UnitPrice = unitPrice
			o.recalculateTotals()
			return nil
		}
	}

	o.Items = append(o.Items, Item{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
	o.recalculateTotals()
	return nil
}

// RemoveItem removes a line item by case-insensitive product name.
// An order must always retain at least one item.
func (o *Order) RemoveItem(productName string) error {
	for idx := range o.Items {
		if strings.EqualFold(o.Items[idx].ProductName, productName) {
			if len(o.Items) == 1 {
				return shared.NewDomainError("LAST_ITEM", "An order must retain at least one item")
			}
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Order has no item named %q", productName))
}

// ReplaceItems swaps the full item list, used when a confirmed edit is
// applied. An empty item list is rejected.
func (o *Order) ReplaceItems(items []Item) error {
	if len(items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "An order must retain at least one item")
	}
	for idx := range items {
		items[idx].OrderID = o.ID
		if items[idx].ID == uuid.Nil {
			items[idx].ID = uuid.New()
		}
	}
	o.Items = items
	o.recalculateTotals()
	o.AddDomainEvent(NewOrderEditedEvent(o))
	return nil
}

// SetDeliveryDetails records fulfillment type, schedule and address
func (o *Order) SetDeliveryDetails(fulfillment FulfillmentType, deliveryDate *time.Time, address, pickupTime string) error {
	if !fulfillment.IsValid() {
		return shared.NewDomainError("INVALID_FULFILLMENT", "Fulfillment type must be pickup or delivery")
	}
	if fulfillment == FulfillmentDelivery && strings.TrimSpace(address) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Delivery orders require an address")
	}

	o.FulfillmentType = fulfillment
	o.DeliveryDate = deliveryDate
	o.DeliveryAddress = address
	o.PickupTime = pickupTime
	o.Touch()
	return nil
}

// MarkPending parks the order because stock was insufficient at acceptance.
// No reservation exists for a pending order.
func (o *Order) MarkPending(shortages []inventory.IngredientRequirement) error {
	if o.Status != StatusNewOrder {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order pending in %s status", o.Status))
	}
	o.Status = StatusPending
	o.Touch()
	o.AddDomainEvent(NewOrderPendingEvent(o, shortages))
	return nil
}

// Accept moves a pending order back to New Order once stock allows it
func (o *Order) Accept() error {
	if !o.Status.CanTransitionTo(StatusNewOrder) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot accept order in %s status", o.Status))
	}
	o.Status = StatusNewOrder
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, StatusPending))
	return nil
}

// StartProcessing moves the order to On Process and attaches the FEFO lot
// usage trace of the deduction that fulfilled it.
func (o *Order) StartProcessing(usages []LotUsageRecord) error {
	if !o.Status.CanTransitionTo(StatusOnProcess) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing order in %s status", o.Status))
	}

	prev := o.Status
	for idx := range usages {
		usages[idx].OrderID = o.ID
		if usages[idx].ID == uuid.Nil {
			usages[idx].ID = uuid.New()
		}
		if usages[idx].CreatedAt.IsZero() {
			usages[idx].CreatedAt = time.Now()
		}
	}
	o.LotUsages = append(o.LotUsages, usages...)
	o.Status = StatusOnProcess
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// Complete marks the order as finished
func (o *Order) Complete() error {
	if !o.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	prev := o.Status
	o.Status = StatusCompleted
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// Cancel cancels the order. The application service pairs this with a
// reservation release for orders that held one.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	prev := o.Status
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.Touch()
	o.AddDomainEvent(NewOrderCancelledEvent(o, prev))
	return nil
}

// recalculateTotals recomputes subtotal, tax and total from the items
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Amount())
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax)
	o.Touch()
}

// GetItemByName returns the item matching the product name, nil if absent
func (o *Order) GetItemByName(productName string) *Item {
	for idx := range o.Items {
		if strings.EqualFold(o.Items[idx].ProductName, productName) {
			return &o.Items[idx]
		}
	}
	return nil
}

// ItemQuantities returns the (name, quantity) pairs of the current items
func (o *Order) ItemQuantities() map[string]int {
	out := make(map[string]int, len(o.Items))
	for _, item := range o.Items {
		out[item.ProductName] = item.Quantity
	}
	return out
}

// HasReservation reports whether the order's status implies a standing
// stock reservation.
func (o *Order) HasReservation() bool {
	return o.Status == StatusNewOrder
}

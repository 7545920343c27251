package order

import (
	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// Event type constants for the order domain
const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderPending       = "order.pending"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderEdited        = "order.edited"
	EventTypeOrderCancelled     = "order.cancelled"
)

const aggregateTypeOrder = "Order"

// CreatedEvent is emitted when a new order is persisted
type CreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
}

// NewOrderCreatedEvent creates a CreatedEvent
func NewOrderCreatedEvent(o *Order) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, aggregateTypeOrder, o.ID),
		CustomerID:      o.CustomerID,
		Total:           o.Total,
		ItemCount:       len(o.Items),
	}
}

// PendingEvent is emitted when insufficient stock parks an order
type PendingEvent struct {
	shared.BaseDomainEvent
	CustomerID string                             `json:"customer_id"`
	Shortages  []inventory.IngredientRequirement  `json:"shortages"`
}

// NewOrderPendingEvent creates a PendingEvent
func NewOrderPendingEvent(o *Order, shortages []inventory.IngredientRequirement) *PendingEvent {
	return &PendingEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPending, aggregateTypeOrder, o.ID),
		CustomerID:      o.CustomerID,
		Shortages:       shortages,
	}
}

// StatusChangedEvent is emitted on every non-terminal status transition
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID string `json:"customer_id"`
	From       Status `json:"from"`
	To         Status `json:"to"`
}

// NewOrderStatusChangedEvent creates a StatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, aggregateTypeOrder, o.ID),
		CustomerID:      o.CustomerID,
		From:            from,
		To:              o.Status,
	}
}

// EditedEvent is emitted when a confirmed edit replaces the item list
type EditedEvent struct {
	shared.BaseDomainEvent
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
}

// NewOrderEditedEvent creates an EditedEvent
func NewOrderEditedEvent(o *Order) *EditedEvent {
	return &EditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderEdited, aggregateTypeOrder, o.ID),
		CustomerID:      o.CustomerID,
		Total:           o.Total,
		ItemCount:       len(o.Items),
	}
}

// CancelledEvent is emitted when an order is cancelled
type CancelledEvent struct {
	shared.BaseDomainEvent
	CustomerID     string `json:"customer_id"`
	PreviousStatus Status `json:"previous_status"`
	Reason         string `json:"reason"`
}

// NewOrderCancelledEvent creates a CancelledEvent
func NewOrderCancelledEvent(o *Order, prev Status) *CancelledEvent {
	return &CancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, aggregateTypeOrder, o.ID),
		CustomerID:      o.CustomerID,
		PreviousStatus:  prev,
		Reason:          o.CancelReason,
	}
}

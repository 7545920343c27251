package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// RestockRetryHandler listens for replenishment events and re-evaluates
// Pending orders, so an order parked on insufficient stock is picked up
// again as soon as a delivery lands.
type RestockRetryHandler struct {
	logger   *zap.Logger
	orders   *OrderService
	notifier AcceptanceNotifier
}

// AcceptanceNotifier tells the customer their parked order was accepted.
// The chat layer implements this on top of the outbound transport.
type AcceptanceNotifier interface {
	NotifyOrderAccepted(ctx context.Context, customerID string, order OrderResponse) error
}

// NewRestockRetryHandler creates a new handler for stock replenished events
func NewRestockRetryHandler(logger *zap.Logger, orders *OrderService) *RestockRetryHandler {
	return &RestockRetryHandler{
		logger: logger,
		orders: orders,
	}
}

// WithNotifier sets the notifier for acceptance messages
func (h *RestockRetryHandler) WithNotifier(notifier AcceptanceNotifier) *RestockRetryHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *RestockRetryHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockReplenished}
}

// Handle processes a StockReplenishedEvent by retrying all Pending orders
func (h *RestockRetryHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	replenished, ok := event.(*inventory.StockReplenishedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockReplenished, event.EventType())
	}

	h.logger.Info("stock replenished, retrying pending orders",
		zap.String("ingredient_id", replenished.AggregateID().String()),
		zap.String("ingredient_name", replenished.IngredientName),
	)

	accepted, err := h.orders.RetryPending(ctx)
	if err != nil {
		h.logger.Error("pending order retry failed", zap.Error(err))
		return err
	}

	for _, o := range accepted {
		h.logger.Info("pending order accepted after restock",
			zap.String("order_id", o.ID.String()),
			zap.String("customer_id", o.CustomerID),
		)
		if h.notifier != nil {
			if err := h.notifier.NotifyOrderAccepted(ctx, o.CustomerID, o); err != nil {
				h.logger.Warn("acceptance notification failed",
					zap.String("order_id", o.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

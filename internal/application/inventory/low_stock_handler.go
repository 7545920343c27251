package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// LowStockAlertHandler surfaces ingredients that dropped under their alert
// threshold. Alert delivery is left to whoever reads the logs; the handler
// exists so the event does not fall on the floor.
type LowStockAlertHandler struct {
	logger *zap.Logger
}

// NewLowStockAlertHandler creates a new handler for low stock events
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowMinimum}
}

// Handle logs the low stock warning
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	low, ok := event.(*inventory.StockBelowMinimumEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowMinimum, event.EventType())
	}

	h.logger.Warn("ingredient below minimum stock",
		zap.String("ingredient_id", low.AggregateID().String()),
		zap.String("ingredient_name", low.IngredientName),
		zap.String("current_stock", low.CurrentStock.String()),
		zap.String("minimum_stock", low.MinimumStock.String()),
	)
	return nil
}

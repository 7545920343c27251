package chat

import (
	"context"

	apporder "github.com/tokoroti/backend/internal/application/order"
)

// OrderAcceptedNotifier tells customers their parked order went through,
// using the outbound transport. It backs the restock retry handler.
type OrderAcceptedNotifier struct {
	sender OutboundSender
}

// NewOrderAcceptedNotifier creates a new OrderAcceptedNotifier
func NewOrderAcceptedNotifier(sender OutboundSender) *OrderAcceptedNotifier {
	return &OrderAcceptedNotifier{sender: sender}
}

// NotifyOrderAccepted sends the acceptance message to the customer
func (n *OrderAcceptedNotifier) NotifyOrderAccepted(ctx context.Context, customerID string, o apporder.OrderResponse) error {
	return n.sender.Send(ctx, customerID, replyOrderAccepted(o))
}

var _ apporder.AcceptanceNotifier = (*OrderAcceptedNotifier)(nil)

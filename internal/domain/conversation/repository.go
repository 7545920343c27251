package conversation

import (
	"context"
)

// Repository defines persistence operations for conversation states.
// The unique customer index keeps at most one state row per customer;
// Save rejects stale versions with shared.ErrConcurrencyConflict.
type Repository interface {
	// FindByCustomer returns the customer's state, nil if none exists yet
	FindByCustomer(ctx context.Context, customerID string) (*ConversationState, error)
	Save(ctx context.Context, state *ConversationState) error
}
